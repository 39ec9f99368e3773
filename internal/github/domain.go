package github

// User represents the authenticated GitHub user.
type User struct {
	Login string
	Name  string
	Email string
}

// Repository represents a GitHub repository visible to the client.
type Repository struct {
	Owner         string
	Name          string
	FullName      string
	Description   string
	CloneURL      string
	SSHURL        string
	DefaultBranch string
	SizeKB        int
	Private       bool
	Fork          bool
	Archived      bool
}

// CloneProtocol selects the transport of a repository clone URL.
type CloneProtocol string

const (
	ProtocolHTTPS CloneProtocol = "https"
	ProtocolSSH   CloneProtocol = "ssh"
)
