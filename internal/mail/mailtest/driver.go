// Package mailtest provides an in-memory mail.Driver.
package mailtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/mail"
)

// Driver plays back scripted folders. Rows are listed newest first.
type Driver struct {
	mu sync.Mutex

	Folders map[domain.Folder][]mail.RawMessage
	// PageSize is the number of rows rendered per scroll; 0 renders everything.
	PageSize int
	LoggedIn bool

	LoginErr   error
	ProbeErr   error
	ComposeErr error
	// FailReadAt makes ReadMessage fail on that id.
	FailReadAt string
	// ComposeHook runs inside Compose before the draft is recorded.
	ComposeHook func()

	Logins    int
	Scrolls   int
	Closed    int
	Drafts    []mail.Draft
	active    int
	MaxActive int

	folder   domain.Folder
	selected int
	rendered int
}

var _ mail.Driver = (*Driver)(nil)

// New returns a logged-out driver over folders.
func New(folders map[domain.Folder][]mail.RawMessage) *Driver {
	return &Driver{Folders: folders, selected: -1}
}

func (d *Driver) rows() []mail.RawMessage {
	return d.Folders[d.folder]
}

func (d *Driver) Login(ctx context.Context, creds mail.Credentials, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Logins++
	if d.LoginErr != nil {
		return d.LoginErr
	}
	if creds.Username == "" {
		return errors.New("empty user")
	}
	d.LoggedIn = true
	return nil
}

func (d *Driver) IsLoggedIn(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ProbeErr != nil {
		return false, d.ProbeErr
	}
	return d.LoggedIn, nil
}

func (d *Driver) OpenFolder(ctx context.Context, folder domain.Folder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.Folders[folder]; !ok {
		return errors.New("no such folder " + string(folder))
	}
	d.folder = folder
	d.selected = -1
	d.rendered = len(d.rows())
	if d.PageSize > 0 && d.PageSize < d.rendered {
		d.rendered = d.PageSize
	}
	return nil
}

func (d *Driver) SelectFirst(ctx context.Context, folder domain.Folder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rows()) == 0 {
		return errors.New("timeout waiting for message list")
	}
	d.selected = 0
	return nil
}

func (d *Driver) SelectedID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected < 0 {
		return "", nil
	}
	return d.rows()[d.selected].ID, nil
}

func (d *Driver) SelectNext(ctx context.Context, folder domain.Folder, currentID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows := d.rows()
	for i, r := range rows {
		if r.ID != currentID {
			continue
		}
		next := i + 1
		if next >= len(rows) || next >= d.rendered {
			return false, nil
		}
		d.selected = next
		return true, nil
	}
	return false, errors.New("row " + currentID + " not found")
}

func (d *Driver) Scroll(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Scrolls++
	if d.PageSize > 0 {
		d.rendered += d.PageSize
	}
	if n := len(d.rows()); d.rendered > n {
		d.rendered = n
	}
	return nil
}

func (d *Driver) ReadMessage(ctx context.Context) (mail.RawMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected < 0 {
		return mail.RawMessage{}, errors.New("nothing selected")
	}
	m := d.rows()[d.selected]
	if d.FailReadAt != "" && m.ID == d.FailReadAt {
		return mail.RawMessage{}, errors.New("iframe detached")
	}
	return m, nil
}

func (d *Driver) Compose(ctx context.Context, draft mail.Draft) error {
	d.mu.Lock()
	d.active++
	if d.active > d.MaxActive {
		d.MaxActive = d.active
	}
	hook := d.ComposeHook
	d.mu.Unlock()

	if hook != nil {
		hook()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.active--
	if d.ComposeErr != nil {
		return d.ComposeErr
	}
	d.Drafts = append(d.Drafts, draft)
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed++
	return nil
}

// Message builds a raw message received at the given time.
func Message(id, at, subject, from string, to ...string) mail.RawMessage {
	return mail.RawMessage{
		ID:       id,
		DateTime: at,
		Subject:  subject,
		Body:     subject + " body",
		From:     from,
		To:       to,
	}
}
