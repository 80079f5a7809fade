package toolserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const folderMimeType = "application/vnd.google-apps.folder"

// File はDriveのファイル
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size,omitempty"` // Drive API と同じく10進数の文字列
	ModifiedTime string `json:"modifiedTime"`
	CreatedTime  string `json:"createdTime"`
	WebViewLink  string `json:"webViewLink"`
}

// FormInfo はフォームの表示情報
type FormInfo struct {
	Title string `json:"title"`
}

// Form はGoogleフォーム
type Form struct {
	FormID       string   `json:"formId"`
	Info         FormInfo `json:"info"`
	ResponderURI string   `json:"responderUri"`
}

// Email はGmailのメッセージ
type Email struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// Store はデモ用のインメモリデータ。全メソッドは並行に呼び出してよい
type Store struct {
	files  []File
	forms  []Form
	emails []Email
	now    func() time.Time
	mu     sync.RWMutex
}

// NewStore は固定のサンプルデータを持つStoreを作成
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	base := now().UTC()
	stamp := func(daysAgo int) string {
		return base.AddDate(0, 0, -daysAgo).Format(time.RFC3339)
	}

	s := &Store{now: now}
	s.files = []File{
		{ID: "f-budget", Name: "Quarterly Budget.xlsx", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Size: "48213", CreatedTime: stamp(40), ModifiedTime: stamp(2)},
		{ID: "f-report", Name: "Quarterly Report.pdf", MimeType: "application/pdf", Size: "1536000", CreatedTime: stamp(30), ModifiedTime: stamp(5)},
		{ID: "f-notes", Name: "Team Notes", MimeType: "application/vnd.google-apps.document", CreatedTime: stamp(20), ModifiedTime: stamp(1)},
		{ID: "f-logo", Name: "logo.png", MimeType: "image/png", Size: "20480", CreatedTime: stamp(90), ModifiedTime: stamp(90)},
		{ID: "f-taxes", Name: "Tax Return 2025.pdf", MimeType: "application/pdf", Size: "734003", CreatedTime: stamp(60), ModifiedTime: stamp(45)},
	}
	for i := range s.files {
		s.files[i].WebViewLink = driveLink(s.files[i].ID)
	}

	s.forms = []Form{
		{FormID: "form-feedback", Info: FormInfo{Title: "Customer Feedback"}, ResponderURI: formLink("form-feedback")},
		{FormID: "form-signup", Info: FormInfo{Title: "Event Signup"}, ResponderURI: formLink("form-signup")},
	}

	s.emails = []Email{
		{ID: "m-1", From: "alice@example.com", To: "me@example.com", Subject: "Budget review", Date: stamp(1), Snippet: "Can we go over the quarterly budget on Friday?"},
		{ID: "m-2", From: "bob@example.com", To: "me@example.com", Subject: "Lunch", Date: stamp(2), Snippet: "Tacos at noon?"},
		{ID: "m-3", From: "alerts@example.com", To: "me@example.com", Subject: "", Date: stamp(3), Snippet: "Your storage is 80% full."},
	}
	return s
}

func driveLink(id string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", id)
}

func formLink(id string) string {
	return fmt.Sprintf("https://docs.google.com/forms/d/%s/viewform", id)
}

// SearchFiles は名前に query を含むファイルを大文字小文字を区別せずに返す
func (s *Store) SearchFiles(query string) []File {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]File, 0)
	for _, f := range s.files {
		if strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f)
		}
	}
	return out
}

// ListFiles は更新日時の新しい順に全ファイルを返す
func (s *Store) ListFiles() []File {
	s.mu.RLock()
	out := append([]File(nil), s.files...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ModifiedTime > out[j].ModifiedTime })
	return out
}

// GetFile はIDでファイルを取得
func (s *Store) GetFile(id string) (File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files {
		if f.ID == id {
			return f, true
		}
	}
	return File{}, false
}

// CreateFolder はフォルダーを作成
func (s *Store) CreateFolder(name string) File {
	ts := s.now().UTC().Format(time.RFC3339)
	id := uuid.New().String()
	f := File{ID: id, Name: name, MimeType: folderMimeType, CreatedTime: ts, ModifiedTime: ts, WebViewLink: fmt.Sprintf("https://drive.google.com/drive/folders/%s", id)}

	s.mu.Lock()
	s.files = append(s.files, f)
	s.mu.Unlock()
	return f
}

// ListForms は全フォームを返す
func (s *Store) ListForms() []Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Form(nil), s.forms...)
}

// CreateForm はフォームを作成
func (s *Store) CreateForm(title string) Form {
	id := uuid.New().String()
	f := Form{FormID: id, Info: FormInfo{Title: title}, ResponderURI: formLink(id)}

	s.mu.Lock()
	s.forms = append(s.forms, f)
	s.mu.Unlock()
	return f
}

// ListEmails は受信トレイを新しい順に返す
func (s *Store) ListEmails() []Email {
	s.mu.RLock()
	out := append([]Email(nil), s.emails...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// SearchEmails は Gmail 風のクエリでメッセージを検索。"from:<addr>" は送信者の
// 部分一致、それ以外の語は件名か本文抜粋の部分一致で、全条件を満たすものを返す
func (s *Store) SearchEmails(query string) []Email {
	var from string
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if strings.HasPrefix(tok, "from:") {
			from = strings.TrimPrefix(tok, "from:")
			continue
		}
		terms = append(terms, tok)
	}

	out := make([]Email, 0)
	for _, e := range s.ListEmails() {
		if from != "" && !strings.Contains(strings.ToLower(e.From), from) {
			continue
		}
		text := strings.ToLower(e.Subject + " " + e.Snippet)
		matched := true
		for _, t := range terms {
			if !strings.Contains(text, t) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, e)
		}
	}
	return out
}

// SendEmail は送信済みとして記録する。受信トレイには入れない
func (s *Store) SendEmail(to, subject, body string) Email {
	snippet := []rune(body)
	if len(snippet) > 80 {
		snippet = snippet[:80]
	}
	return Email{
		ID:      uuid.New().String(),
		From:    "me@example.com",
		To:      to,
		Subject: subject,
		Date:    s.now().UTC().Format(time.RFC3339),
		Snippet: string(snippet),
	}
}
