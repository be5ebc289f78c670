package httpapi

import "testing"

func TestExtractContractInfoSplitsOnFirstDash(t *testing.T) {
	number, name := extractContractInfo("C230970483-再生資源.pdf")
	if number != "C230970483" {
		t.Errorf("expected contract number C230970483, got %q", number)
	}
	if name != "再生資源" {
		t.Errorf("expected contract name 再生資源, got %q", name)
	}
}

func TestExtractContractInfoNoSeparatorUsesStemForBoth(t *testing.T) {
	number, name := extractContractInfo("plainfile.pdf")
	if number != "plainfile" || name != "plainfile" {
		t.Errorf("expected both to equal the stem, got number=%q name=%q", number, name)
	}
}

func TestExtractContractInfoMultipleDashesSplitsOnFirst(t *testing.T) {
	number, name := extractContractInfo("C1-name-with-dashes.pdf")
	if number != "C1" {
		t.Errorf("expected contract number C1, got %q", number)
	}
	if name != "name-with-dashes" {
		t.Errorf("expected contract name to keep remaining dashes, got %q", name)
	}
}

func TestFileFormatUppercasesExtension(t *testing.T) {
	if got := fileFormat("contract.pdf"); got != "PDF" {
		t.Errorf("expected PDF, got %q", got)
	}
	if got := fileFormat("noext"); got != "" {
		t.Errorf("expected empty format for no extension, got %q", got)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	allowed := []string{".pdf", ".docx"}
	if !isSupportedFormat("a.PDF", allowed) {
		t.Error("expected case-insensitive match for .PDF")
	}
	if isSupportedFormat("a.exe", allowed) {
		t.Error("did not expect .exe to be supported")
	}
}
