// Package webmail drives the webmail UI with a Chromium browser.
package webmail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
	"github.com/locvowork/mywork_tools/internal/mail"
)

const (
	defaultTimeout = 30 * time.Second
	// settle is the pause after a click while the message pane redraws.
	settle = time.Second
)

// Driver implements mail.Driver on a playwright page.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
}

var _ mail.Driver = (*Driver)(nil)

// New starts playwright and opens one page. Everything opened so far is
// released when a step fails.
func New(cfg config.BrowserConfig) (*Driver, error) {
	d := &Driver{}
	if err := d.open(cfg); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) open(cfg config.BrowserConfig) error {
	var err error
	if d.pw, err = playwright.Run(); err != nil {
		return domain.Wrap(domain.ErrSession, "start playwright", err)
	}
	d.browser, err = d.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		return domain.Wrap(domain.ErrSession, "launch browser", err)
	}
	if d.bctx, err = d.browser.NewContext(); err != nil {
		return domain.Wrap(domain.ErrSession, "new browser context", err)
	}
	if d.page, err = d.bctx.NewPage(); err != nil {
		return domain.Wrap(domain.ErrSession, "new page", err)
	}
	d.page.SetDefaultTimeout(float64(defaultTimeout.Milliseconds()))
	return nil
}

// timeoutMs converts what is left of ctx into a playwright timeout.
func timeoutMs(ctx context.Context, fallback time.Duration) *float64 {
	t := fallback
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < t {
			t = left
		}
	}
	if t < time.Millisecond {
		t = time.Millisecond
	}
	return playwright.Float(float64(t.Milliseconds()))
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (d *Driver) Login(ctx context.Context, creds mail.Credentials, timeout time.Duration) error {
	if _, err := d.page.Goto(creds.URL); err != nil {
		return fmt.Errorf("open %s: %w", creds.URL, err)
	}
	if err := d.page.Locator(selUserID).Fill(creds.Username); err != nil {
		return fmt.Errorf("fill user id: %w", err)
	}
	if err := d.page.Locator(selPassword).Fill(creds.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	button := d.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: loginButton})
	if err := button.Click(); err != nil {
		return fmt.Errorf("click login: %w", err)
	}
	err := d.page.Locator(selMailListPage).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: timeoutMs(ctx, timeout),
	})
	if err != nil {
		return domain.Wrap(domain.ErrAuthentication, "login", err)
	}
	return nil
}

func (d *Driver) IsLoggedIn(ctx context.Context) (bool, error) {
	n, err := d.page.Locator(selMailListPage).Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Driver) OpenFolder(ctx context.Context, folder domain.Folder) error {
	sel, err := folderOf(folder)
	if err != nil {
		return err
	}
	label := d.page.Locator(selFolderPane).Locator(sel.folderLabel())
	if err := label.Click(playwright.LocatorClickOptions{Timeout: timeoutMs(ctx, defaultTimeout)}); err != nil {
		return fmt.Errorf("open %s: %w", folder, err)
	}
	return nil
}

func (d *Driver) SelectFirst(ctx context.Context, folder domain.Folder) error {
	sel, err := folderOf(folder)
	if err != nil {
		return err
	}
	first := d.page.Locator(sel.rows()).First()
	err = first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeoutMs(ctx, defaultTimeout),
	})
	if err != nil {
		return fmt.Errorf("wait for %s list: %w", folder, err)
	}
	if err := first.Click(); err != nil {
		return fmt.Errorf("select first row: %w", err)
	}
	return pause(ctx, settle)
}

func (d *Driver) SelectedID(ctx context.Context) (string, error) {
	row := d.page.Locator(selSelectedRow)
	n, err := row.Count()
	if err != nil || n == 0 {
		return "", err
	}
	return row.First().GetAttribute("data-id")
}

func (d *Driver) SelectNext(ctx context.Context, folder domain.Folder, currentID string) (bool, error) {
	sel, err := folderOf(folder)
	if err != nil {
		return false, err
	}
	next := d.page.Locator(sel.nextRow(currentID))
	visible, err := next.IsVisible()
	if err != nil {
		return false, err
	}
	if !visible {
		return false, nil
	}
	if err := next.Click(); err != nil {
		return false, fmt.Errorf("select row after %s: %w", currentID, err)
	}
	return true, pause(ctx, settle)
}

func (d *Driver) Scroll(ctx context.Context) error {
	if err := d.page.Mouse().Wheel(0, 100000); err != nil {
		return err
	}
	return pause(ctx, settle)
}

func (d *Driver) ReadMessage(ctx context.Context) (mail.RawMessage, error) {
	var raw mail.RawMessage

	err := d.page.Locator(selBodyFrame).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: timeoutMs(ctx, defaultTimeout),
	})
	if err != nil {
		return raw, fmt.Errorf("wait for message body: %w", err)
	}

	if raw.ID, err = d.SelectedID(ctx); err != nil {
		return raw, fmt.Errorf("selected id: %w", err)
	}
	if raw.Body, err = d.page.FrameLocator(selBodyFrame).Locator("body").TextContent(); err != nil {
		return raw, fmt.Errorf("message body: %w", err)
	}
	if raw.From, err = d.page.Locator(selFrom).Nth(1).GetAttribute("data-value"); err != nil {
		return raw, fmt.Errorf("sender: %w", err)
	}
	if raw.To, err = d.attributes(selTo, "data-value"); err != nil {
		return raw, fmt.Errorf("to: %w", err)
	}
	if raw.Cc, err = d.attributes(selCc, "data-value"); err != nil {
		return raw, fmt.Errorf("cc: %w", err)
	}
	if raw.DateTime, err = d.page.Locator(selDateTime).Nth(1).TextContent(); err != nil {
		return raw, fmt.Errorf("date: %w", err)
	}
	if raw.Subject, err = d.page.Locator(selSubject).TextContent(); err != nil {
		return raw, fmt.Errorf("subject: %w", err)
	}
	raw.DateTime = strings.TrimSpace(raw.DateTime)
	raw.Subject = strings.TrimSpace(raw.Subject)

	if raw.Attachments, err = d.attachments(); err != nil {
		return raw, fmt.Errorf("attachments: %w", err)
	}
	return raw, nil
}

func (d *Driver) attributes(selector, name string) ([]string, error) {
	items, err := d.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		v, err := item.GetAttribute(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Driver) attachments() ([]string, error) {
	show := d.page.Locator(selShowAttach)
	if visible, _ := show.IsVisible(); visible {
		if err := show.Click(); err != nil {
			return nil, err
		}
	}
	list := d.page.Locator(selAttachList)
	if visible, _ := list.IsVisible(); !visible {
		return nil, nil
	}
	return list.AllTextContents()
}

// Compose fills the compose popup and confirms the send dialog.
func (d *Driver) Compose(ctx context.Context, draft mail.Draft) error {
	toolbar := d.page.Locator(selToolbar)
	popup, err := d.page.ExpectPopup(func() error {
		return toolbar.GetByRole(*playwright.AriaRoleButton, playwright.LocatorGetByRoleOptions{Name: composeButton}).Click()
	})
	if err != nil {
		return fmt.Errorf("open compose window: %w", err)
	}
	defer func() {
		if !popup.IsClosed() {
			_ = popup.Close()
		}
	}()

	if err := popup.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateNetworkidle}); err != nil {
		return fmt.Errorf("load compose window: %w", err)
	}

	for _, to := range draft.To {
		if err := fillAddress(popup, selEditTo, to); err != nil {
			return fmt.Errorf("to %s: %w", to, err)
		}
	}
	if len(draft.Cc) > 0 {
		if err := popup.Locator(selAddCc).Click(); err != nil {
			return fmt.Errorf("show cc: %w", err)
		}
		for _, cc := range draft.Cc {
			if err := fillAddress(popup, selEditCc, cc); err != nil {
				return fmt.Errorf("cc %s: %w", cc, err)
			}
		}
	}
	if err := popup.Locator(selEditSubject).Fill(draft.Subject); err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	if err := popup.Locator(selEditBody).Fill(draft.Body); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	if draft.Attachment != "" {
		if err := attach(popup, draft.Attachment); err != nil {
			return fmt.Errorf("attach %s: %w", draft.Attachment, err)
		}
	}

	send := popup.Locator(selToolbar).GetByRole(*playwright.AriaRoleButton, playwright.LocatorGetByRoleOptions{Name: sendButton})
	if err := send.Click(); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	err = popup.Locator(selConfirm).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeoutMs(ctx, defaultTimeout),
	})
	if err != nil {
		return fmt.Errorf("wait for confirm dialog: %w", err)
	}
	if err := popup.Locator(selConfirmOK).Click(); err != nil {
		return fmt.Errorf("confirm send: %w", err)
	}
	logger.DebugLog(ctx, "compose window submitted")
	return nil
}

func fillAddress(p playwright.Page, selector, address string) error {
	if err := p.Locator(selector).Fill(address); err != nil {
		return err
	}
	return p.Keyboard().Press("Tab")
}

func attach(p playwright.Page, path string) error {
	if err := p.Locator(selAttachOpen).Click(); err != nil {
		return err
	}
	chooser, err := p.ExpectFileChooser(func() error {
		return p.Locator(selAttachChooser).Click()
	})
	if err != nil {
		return err
	}
	if err := chooser.SetFiles(path); err != nil {
		return err
	}
	return p.Locator(selAttachOK).Click()
}

// Close releases the page, the context, the browser and playwright, newest
// first. It is safe on a partially opened Driver.
func (d *Driver) Close() error {
	var errs []error
	if d.page != nil {
		errs = append(errs, d.page.Close())
		d.page = nil
	}
	if d.bctx != nil {
		errs = append(errs, d.bctx.Close())
		d.bctx = nil
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
		d.browser = nil
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
		d.pw = nil
	}
	return errors.Join(errs...)
}
