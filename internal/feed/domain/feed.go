package domain

import (
	"net/http"
	"time"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type Post struct {
	ID           string        `json:"id"`
	UserID       userdomain.ID `json:"userId"`
	Content      string        `json:"content"`
	ImageURL     string        `json:"imageUrl"`
	CreatedAt    time.Time     `json:"createdAt"`
	AuthorName   string        `json:"authorName"`
	AuthorPicURL string        `json:"authorPicUrl"`
}

type File struct {
	ID          string        `json:"id"`
	UserID      userdomain.ID `json:"userId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	FileURL     string        `json:"fileUrl"`
	ObjectKey   string        `json:"-"`
	CreatedAt   time.Time     `json:"createdAt"`
	AuthorName  string        `json:"authorName"`
}

// Dashboard is what a member sees. Posts and Files stay empty unless the
// member follows the designated admin.
type Dashboard struct {
	NoAdmin    bool          `json:"noAdmin"`
	MustFollow bool          `json:"mustFollow"`
	AdminID    userdomain.ID `json:"adminId,omitempty"`
	Posts      []Post        `json:"posts"`
	Files      []File        `json:"files"`
}

type AdminDashboard struct {
	Posts []Post `json:"posts"`
	Files []File `json:"files"`
}

type Stats struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalPosts    int64 `json:"totalPosts"`
	TotalFiles    int64 `json:"totalFiles"`
	TotalMessages int64 `json:"totalMessages"`
	ActiveToday   int64 `json:"activeToday"`
	ActiveWeek    int64 `json:"activeWeek"`
	ActiveMonth   int64 `json:"activeMonth"`
}

var (
	ErrPostNotFound = commonerrors.NewDomainError(
		"POST_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"Post not found.",
	)

	ErrInvalidPost = commonerrors.NewDomainError(
		"INVALID_POST",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Post content cannot be empty or too long.",
	)

	ErrInvalidFile = commonerrors.NewDomainError(
		"INVALID_FILE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Please give the file a title and choose a file to upload.",
	)
)
