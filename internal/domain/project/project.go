package project

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultColor = "#0077B6"

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	ErrNotFound     = errors.New("project not found")
	ErrInvalidName  = errors.New("project name must not be empty")
	ErrInvalidColor = errors.New("color must be a hex value like #0077B6")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
}

// UpdateProjectRequest is a partial update; nil fields are left untouched.
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
}

func ValidColor(c string) bool {
	return hexColor.MatchString(c)
}

// NewFromCreateRequest builds a project owned by ownerID. Any owner the client
// might have sent is irrelevant: ownership always comes from the caller.
func NewFromCreateRequest(ownerID string, req CreateProjectRequest) (Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Project{}, ErrInvalidName
	}

	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = DefaultColor
	}
	if !ValidColor(color) {
		return Project{}, ErrInvalidColor
	}

	now := time.Now().UTC()

	return Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Color:       color,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply validates the patch and writes it onto p.
func (req UpdateProjectRequest) Apply(p *Project) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ErrInvalidName
		}
		p.Name = name
	}

	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}

	if req.Color != nil {
		color := strings.TrimSpace(*req.Color)
		if !ValidColor(color) {
			return ErrInvalidColor
		}
		p.Color = color
	}

	p.UpdatedAt = time.Now().UTC()

	return nil
}
