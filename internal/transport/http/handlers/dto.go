package handlers

import (
	"time"

	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
)

type highlightDTO struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type commentDTO struct {
	ID             string        `json:"id"`
	Content        string        `json:"content"`
	Highlight      *highlightDTO `json:"highlight,omitempty"`
	AuthorID       string        `json:"author_id"`
	EntityID       string        `json:"entity_id"`
	EntityType     string        `json:"entity_type"`
	ParentID       string        `json:"parent_id,omitempty"`
	Mentions       []userDTO     `json:"mentions"`
	Deleted        bool          `json:"deleted"`
	DateDeleted    *time.Time    `json:"date_deleted,omitempty"`
	DateLastEdited *time.Time    `json:"date_last_edited,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Replies        []*commentDTO `json:"replies"`
	UserVote       *int          `json:"user_vote,omitempty"`
}

type createCommentRequest struct {
	EntityType string        `json:"entity_type"`
	Content    string        `json:"content"`
	Highlight  *highlightDTO `json:"highlight"`
	ParentID   string        `json:"parent_id"`
	Mentions   []string      `json:"mentions"`
}

// updateCommentRequest: отсутствующий mentions очищает упоминания.
type updateCommentRequest struct {
	Content   *string       `json:"content"`
	Highlight *highlightDTO `json:"highlight"`
	Mentions  []string      `json:"mentions"`
}

type voteRequest struct {
	Value int `json:"value"`
}

type resultResponse struct {
	Result any `json:"result"`
}

func (h *highlightDTO) toModel() *models.Highlight {
	if h == nil {
		return nil
	}
	return &models.Highlight{Text: h.Text, Start: h.Start, End: h.End}
}

func newCommentDTO(c *models.Comment) *commentDTO {
	out := &commentDTO{
		ID:             c.ID,
		Content:        c.Content,
		AuthorID:       c.AuthorID.String(),
		EntityID:       c.EntityID,
		EntityType:     string(c.EntityType),
		ParentID:       c.ParentID,
		Mentions:       make([]userDTO, 0, len(c.Mentions)),
		Deleted:        c.Deleted,
		DateDeleted:    c.DateDeleted,
		DateLastEdited: c.DateLastEdited,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Replies:        make([]*commentDTO, 0, len(c.Replies)),
	}

	if c.Highlight != nil {
		out.Highlight = &highlightDTO{Text: c.Highlight.Text, Start: c.Highlight.Start, End: c.Highlight.End}
	}

	for _, u := range c.Mentions {
		out.Mentions = append(out.Mentions, userDTO{ID: u.ID.String(), Username: u.Username, Name: u.Name})
	}

	if c.UserVote != nil {
		v := int(*c.UserVote)
		out.UserVote = &v
	}

	return out
}

// treeToDTO переносит деревья в DTO обходом storage.Walk, без рекурсии.
func treeToDTO(roots []*models.Comment) []*commentDTO {
	out := make([]*commentDTO, 0, len(roots))
	byNode := make(map[*models.Comment]*commentDTO, len(roots))

	for _, r := range roots {
		if r == nil {
			continue
		}
		d := newCommentDTO(r)
		byNode[r] = d
		out = append(out, d)
	}

	storage.Walk(roots, func(c *models.Comment) {
		parent := byNode[c]
		for _, ch := range c.Replies {
			if ch == nil {
				continue
			}
			if _, ok := byNode[ch]; ok {
				continue
			}
			d := newCommentDTO(ch)
			byNode[ch] = d
			parent.Replies = append(parent.Replies, d)
		}
	})

	return out
}
