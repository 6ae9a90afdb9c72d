package handler

import (
	"github.com/miniforum-dev/miniforum/internal/forum"
	"github.com/miniforum-dev/miniforum/internal/markdown"
	"github.com/miniforum-dev/miniforum/shared/domain"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateThreadRequest struct {
	Title string `json:"title" validate:"required"`
}

type CreatePostRequest struct {
	Text string `json:"text" validate:"required"`
}

type ResumeRequest struct {
	IdToken string `json:"id_token" validate:"required"`
}

type UserView struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type ThreadView struct {
	Id         string `json:"id"`
	Title      string `json:"title"`
	AuthorId   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	CreatedAt  string `json:"created_at"`
	LastAt     string `json:"last_at"`
}

type PostView struct {
	Id         string `json:"id"`
	ThreadId   string `json:"thread_id"`
	Text       string `json:"text"`
	Html       string `json:"html"`
	AuthorId   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	CreatedAt  string `json:"created_at"`
}

// StateResponse is the full render model: everything a client needs to draw
// the page, with timestamps already formatted and post text already
// rendered to sanitized HTML.
type StateResponse struct {
	CurrentUser    *UserView    `json:"current_user"`
	Threads        []ThreadView `json:"threads"`
	LoadingThreads bool         `json:"loading_threads"`
	ActiveThreadId string       `json:"active_thread_id"`
	Posts          []PostView   `json:"posts"`
	ThreadTitle    string       `json:"thread_title"`
	ReplyText      string       `json:"reply_text"`
	LastError      string       `json:"last_error"`
	LastInfo       string       `json:"last_info"`
	Busy           bool         `json:"busy"`
}

func stateResponse(snap forum.Snapshot, md *markdown.Renderer) StateResponse {
	resp := StateResponse{
		Threads:        make([]ThreadView, 0, len(snap.Threads)),
		LoadingThreads: snap.LoadingThreads,
		ActiveThreadId: snap.ActiveThreadId,
		Posts:          make([]PostView, 0, len(snap.Posts)),
		ThreadTitle:    snap.ThreadTitle,
		ReplyText:      snap.ReplyText,
		LastError:      snap.LastError,
		LastInfo:       snap.LastInfo,
		Busy:           snap.Busy,
	}
	if snap.CurrentUser != nil {
		resp.CurrentUser = &UserView{
			Id:          snap.CurrentUser.Id,
			DisplayName: snap.CurrentUser.DisplayName,
			Email:       snap.CurrentUser.Email,
		}
	}
	for _, th := range snap.Threads {
		resp.Threads = append(resp.Threads, ThreadView{
			Id:         th.Id,
			Title:      th.Title,
			AuthorId:   th.AuthorId,
			AuthorName: th.AuthorName,
			CreatedAt:  forum.FormatTimestamp(th.CreatedAt),
			LastAt:     forum.FormatTimestamp(th.LastAt),
		})
	}
	for _, p := range snap.Posts {
		resp.Posts = append(resp.Posts, PostView{
			Id:         p.Id,
			ThreadId:   p.ThreadId,
			Text:       p.Text,
			Html:       md.Render(p.Text),
			AuthorId:   p.AuthorId,
			AuthorName: p.AuthorName,
			CreatedAt:  forum.FormatTimestamp(p.CreatedAt),
		})
	}
	return resp
}

func findThread(snap forum.Snapshot, id domain.ThreadId) (domain.Thread, bool) {
	for _, th := range snap.Threads {
		if th.Id == id {
			return th, true
		}
	}
	return domain.Thread{}, false
}

func findPost(snap forum.Snapshot, id domain.PostId) (domain.Post, bool) {
	for _, p := range snap.Posts {
		if p.Id == id {
			return p, true
		}
	}
	return domain.Post{}, false
}
