package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/telebirr-verify/internal/app"
	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/stub"
)

func TestParseFile_Offline(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "receipt.html")
	if err := os.WriteFile(p, []byte(stub.Page("CFB0L2AXYZ")), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := parseFile(app.DefaultConfig(), p, "CFB0L2AXYZ")
	if err != nil {
		t.Fatalf("parseFile: %v", err)
	}
	if len(res) != 1 || res[0].Receipt == nil || res[0].Receipt.SettledAmount != "1,234.50" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := parseFile(app.DefaultConfig(), p, ""); err == nil {
		t.Fatalf("expected error without --tx")
	}
}

func TestParseFile_ReportsFailureCode(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "empty.html")
	if err := os.WriteFile(p, []byte("<html></html>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := parseFile(app.DefaultConfig(), p, "CFB0L2AXYZ")
	if err != nil {
		t.Fatalf("parseFile: %v", err)
	}
	if res[0].Err == nil || res[0].Err.Code != failure.EmptyHTML {
		t.Fatalf("expected EMPTY_HTML, got %+v", res[0])
	}
}

func TestReadIDs(t *testing.T) {
	ids, err := readIDs(strings.NewReader("CFB0L2AXYZ\n\n# comment\n  AAAAAAAAAA  \n"))
	if err != nil {
		t.Fatalf("readIDs: %v", err)
	}
	if len(ids) != 2 || ids[1] != "AAAAAAAAAA" {
		t.Fatalf("ids=%v", ids)
	}
}
