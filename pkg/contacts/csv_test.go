package contacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleInput = `full_name,job_title,company_name,company_domain,linkedin,work_email,draft_email
A. Lee,Partner,Acme,acme.com,https://linkedin.com/in/alee,a@acme.com,
B. Kim , Engineer ,Beta Labs,betalabs.io,,b@betalabs.io,Hi B.
`

func TestReadContacts(t *testing.T) {
	t.Parallel()

	got, err := ReadContacts(strings.NewReader(sampleInput))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(got))
	}
	if got[0].FullName != "A. Lee" || got[0].CompanyDomain != "acme.com" || got[0].WorkEmail != "a@acme.com" {
		t.Fatalf("unexpected first contact: %+v", got[0])
	}
	if got[0].DraftEmail != "" {
		t.Fatalf("expected empty draft for first contact, got %q", got[0].DraftEmail)
	}
	if got[1].FullName != "B. Kim" || got[1].JobTitle != "Engineer" {
		t.Fatalf("fields must be trimmed: %+v", got[1])
	}
	if got[1].DraftEmail != "Hi B." {
		t.Fatalf("unexpected second contact draft: %q", got[1].DraftEmail)
	}
}

func TestReadContactsExtraColumnsIgnored(t *testing.T) {
	t.Parallel()

	in := "full_name,company_domain,work_email,favorite_color\nA. Lee,acme.com,a@acme.com,green\n"
	got, err := ReadContacts(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].WorkEmail != "a@acme.com" {
		t.Fatalf("unexpected contacts: %+v", got)
	}
}

func TestReadContactsMissingRequiredColumn(t *testing.T) {
	t.Parallel()

	in := "full_name,company_domain\nA. Lee,acme.com\n"
	if _, err := ReadContacts(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for missing work_email column")
	} else if !strings.Contains(err.Error(), "work_email") {
		t.Fatalf("error should name the missing column: %v", err)
	}
}

func TestReadContactsCaseInsensitiveHeader(t *testing.T) {
	t.Parallel()

	in := "Full_Name,COMPANY_DOMAIN,Work_Email\nA. Lee,acme.com,a@acme.com\n"
	got, err := ReadContacts(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].FullName != "A. Lee" {
		t.Fatalf("unexpected contacts: %+v", got)
	}
}

func TestWriteOutcomesStableHeader(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	rows := []Outcome{
		{FullName: "A. Lee", CompanyDomain: "acme.com", WorkEmail: "a@acme.com",
			DraftEmail: "Hello", Status: "ok", DraftIterations: 2, SearchIterations: 1},
		{FullName: "B. Kim", WorkEmail: "b@betalabs.io", Status: "error",
			Error: "generation failed at draft", BudgetExhausted: true},
	}
	if err := WriteOutcomes(&b, rows, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(Header(), ",") {
		t.Fatalf("header drifted: %q", lines[0])
	}
	if !strings.Contains(lines[1], "a@acme.com") || !strings.Contains(lines[1], ",ok,") {
		t.Fatalf("unexpected ok row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "generation failed at draft") || !strings.HasSuffix(lines[2], "true") {
		t.Fatalf("unexpected error row: %q", lines[2])
	}
}

func TestCSVSinkAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "outcomes.csv")
	sink := &CSVSink{Path: path}

	first := []Outcome{{FullName: "A. Lee", WorkEmail: "a@acme.com", Status: "ok"}}
	if err := sink.Store(context.Background(), first); err != nil {
		t.Fatalf("first store: %v", err)
	}
	second := []Outcome{{FullName: "B. Kim", WorkEmail: "b@betalabs.io", Status: "skipped", Error: "missing company domain"}}
	if err := sink.Store(context.Background(), second); err != nil {
		t.Fatalf("second store: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sink file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 1 header + 2 rows across appends, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != strings.Join(Header(), ",") {
		t.Fatalf("header drifted: %q", lines[0])
	}
	if strings.Count(string(data), "full_name") != 1 {
		t.Fatal("header must be written only once")
	}
}

func TestCSVSinkSkipsEmptyStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "outcomes.csv")
	sink := &CSVSink{Path: path}
	if err := sink.Store(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty store must not create the file")
	}
}
