// Package mail searches, stores and sends webmail messages through a Driver.
package mail

import (
	"context"
	"time"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// Credentials log a Driver into the webmail UI.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// RawMessage is the header and body text of the selected message, unparsed.
type RawMessage struct {
	ID string
	// DateTime is formatted as "2006/01/02 15:04".
	DateTime    string
	Subject     string
	Body        string
	From        string
	To          []string
	Cc          []string
	Attachments []string
}

// Draft is an outgoing message.
type Draft struct {
	To         []string
	Cc         []string
	Subject    string
	Body       string
	Attachment string
}

// Driver is the webmail front end. Implementations own every selector and
// wait; the package only sequences the calls.
type Driver interface {
	// Login submits the credentials and waits up to timeout for the mail list.
	Login(ctx context.Context, creds Credentials, timeout time.Duration) error
	IsLoggedIn(ctx context.Context) (bool, error)

	OpenFolder(ctx context.Context, folder domain.Folder) error
	// SelectFirst waits for the list to render and selects the newest row.
	SelectFirst(ctx context.Context, folder domain.Folder) error
	SelectedID(ctx context.Context) (string, error)
	// SelectNext selects the row after currentID. It returns false when
	// that row is not rendered yet.
	SelectNext(ctx context.Context, folder domain.Folder, currentID string) (bool, error)
	// Scroll asks the list to render more rows.
	Scroll(ctx context.Context) error
	ReadMessage(ctx context.Context) (RawMessage, error)

	Compose(ctx context.Context, d Draft) error
	Close() error
}
