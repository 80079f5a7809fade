package routing

import "testing"

func TestActionString(t *testing.T) {
	if ActionUnknown.String() != "unknown" {
		t.Errorf("Expected 'unknown', got '%s'", ActionUnknown.String())
	}
	if ActionCreateFolder.String() != "create_folder" {
		t.Errorf("Expected 'create_folder', got '%s'", ActionCreateFolder.String())
	}
}

func TestIntentToolName(t *testing.T) {
	tests := []struct {
		domain Domain
		action Action
		want   string
	}{
		{DomainDrive, ActionSearch, "search_files"},
		{DomainDrive, ActionList, "list_files"},
		{DomainDrive, ActionCreateFolder, "create_folder"},
		{DomainGmail, ActionSend, "send_email"},
		{DomainGmail, ActionList, "list_emails"},
		{DomainGmail, ActionSearch, "search_emails"},
		{DomainForms, ActionCreate, "create_form"},
		{DomainForms, ActionList, "list_forms"},
		{DomainForms, ActionSend, ""},
		{DomainDrive, ActionUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.domain.String()+"/"+tt.action.String(), func(t *testing.T) {
			got := NewIntent(tt.domain, tt.action, nil, "").ToolName()
			if got != tt.want {
				t.Errorf("ToolName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewIntent(t *testing.T) {
	intent := NewIntent(DomainGmail, ActionSend, map[string]string{FieldTo: "a@example.com"}, "gmail.send")

	if !intent.Known() {
		t.Error("Expected intent to be known")
	}
	if v, ok := intent.Field(FieldTo); !ok || v != "a@example.com" {
		t.Errorf("Expected to field 'a@example.com', got '%s'", v)
	}
	if _, ok := intent.Field(FieldSubject); ok {
		t.Error("Subject should not be present")
	}

	empty := NewIntent(DomainDrive, ActionUnknown, nil, "")
	if empty.Known() {
		t.Error("Unknown action should not be known")
	}
	if empty.Fields == nil {
		t.Error("Fields should never be nil")
	}
}
