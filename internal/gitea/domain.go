package gitea

import "time"

// User represents the authenticated Gitea user.
type User struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// RepoInfo represents a repository on the Gitea server.
type RepoInfo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Private     bool      `json:"private"`
	CloneURL    string    `json:"clone_url"`
	SSHURL      string    `json:"ssh_url"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRepositoryRequest describes a repository to create. When Org is set
// the repository is created under that organization, otherwise under the
// authenticated user.
type CreateRepositoryRequest struct {
	Name        string
	Description string
	Private     bool
	Org         string
}

// UpdateRepositoryRequest carries the mutable repository settings; nil
// fields are left unchanged.
type UpdateRepositoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Private     *bool   `json:"private,omitempty"`
}

// Webhook represents a repository webhook.
type Webhook struct {
	ID     int64    `json:"id"`
	Type   string   `json:"type"`
	Events []string `json:"events"`
	Active bool     `json:"active"`
}
