package source

import (
	"github.com/DeanWanghewei/mirror-git/internal/github"
)

// RepositoryResponse represents a source repository visible to the client.
type RepositoryResponse struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch,omitempty"`
	SizeKB        int    `json:"size_kb"`
	Private       bool   `json:"private"`
	Fork          bool   `json:"fork"`
	Archived      bool   `json:"archived"`
}

func newRepositoryResponse(repo *github.Repository) RepositoryResponse {
	return RepositoryResponse{
		Owner:         repo.Owner,
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		CloneURL:      repo.CloneURL,
		DefaultBranch: repo.DefaultBranch,
		SizeKB:        repo.SizeKB,
		Private:       repo.Private,
		Fork:          repo.Fork,
		Archived:      repo.Archived,
	}
}

// ImportRequest represents the request payload for a bulk import.
type ImportRequest struct {
	Namespace    string `json:"namespace,omitempty" validate:"omitempty,min=1,max=100"`
	SkipForks    bool   `json:"skip_forks,omitempty"`
	SkipArchived bool   `json:"skip_archived,omitempty"`
}

// ImportResponse summarizes a bulk import run.
type ImportResponse struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
