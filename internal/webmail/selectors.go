package webmail

import (
	"fmt"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// Selectors of the webmail UI.
const (
	selUserID       = `input[name="UserID"]`
	selPassword     = `input[name="_word"]`
	loginButton     = "ログイン"
	selMailListPage = `body[data-page=MailList]`

	selFolderPane  = "#mail-folder"
	selSelectedRow = "tr.com_table-row-selected"
	selBodyFrame   = "iframe#mail-view-body-frame"
	selFrom        = ".mail-view-header-from a[data-value]"
	selTo          = ".mail-view-header-to a[data-value]"
	selCc          = ".mail-view-header-cc a[data-value]"
	selDateTime    = ".mail-view-header-datetime"
	selSubject     = "#mail-view-subject"
	selShowAttach  = "#mail-view-header-show_attachment"
	selAttachList  = "#mail-view-header-attachment-list"

	selToolbar       = "#toolbar"
	composeButton    = "作成"
	sendButton       = "送信"
	selEditTo        = "input#mail-edit-to"
	selAddCc         = "span#mail-edit-add_cc"
	selEditCc        = "input#mail-edit-cc"
	selEditSubject   = "input#mail-edit-subject"
	selEditBody      = "textarea#mail-edit-body-text"
	selAttachOpen    = "#mail-edit-footer-section input[type='button'][value='選択']"
	selAttachChooser = "label[for='ifiles']:has-text('クリックしてファイルを選択してください')"
	selAttachOK      = "#jco-attachdlg + div button:has-text('OK')"
	selConfirm       = ".dialog-type-confirm"
	selConfirmOK     = ".dialog-type-confirm button.dialog-ok"
)

type folderSelectors struct {
	label  string
	prefix string
}

var folders = map[domain.Folder]folderSelectors{
	domain.FolderInbox: {label: "受信ボックス", prefix: "INBOX_"},
	domain.FolderSent:  {label: "送信ボックス", prefix: "Sent_"},
}

func folderOf(f domain.Folder) (folderSelectors, error) {
	s, ok := folders[f]
	if !ok {
		return folderSelectors{}, domain.Wrap(domain.ErrUnsupported, "folder", fmt.Errorf("unknown folder %q", f))
	}
	return s, nil
}

func (s folderSelectors) folderLabel() string {
	return fmt.Sprintf(`span:text("%s")`, s.label)
}

func (s folderSelectors) rows() string {
	return fmt.Sprintf("#mail-table [data-id^='%s']", s.prefix)
}

func (s folderSelectors) nextRow(currentID string) string {
	return fmt.Sprintf("tr[data-id='%s'] + tr[data-id^='%s']", currentID, s.prefix)
}
