package extract

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFromHTML_FirstValueWinsOnDuplicateLabel(t *testing.T) {
	html := `<!doctype html>
    <html><body>
      <table>
        <tr><td>Payer Name</td><td>Abebe Kebede</td></tr>
        <tr><td>Payer Name</td><td>Duplicate Value</td></tr>
      </table>
    </body></html>`

	doc, err := FromHTML([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Pairs.Len() != 1 {
		t.Fatalf("expected 1 pair, got %d: %v", doc.Pairs.Len(), doc.Pairs.Keys())
	}
	if v, _ := doc.Pairs.Get("Payer Name"); v != "Abebe Kebede" {
		t.Fatalf("expected first value to win, got %q", v)
	}
}

func TestFromHTML_PairsCellsConsecutivelyAndDropsOddCell(t *testing.T) {
	html := `<html><body><table>
      <tr><th>A</th><td>1</td><td>B</td><td>2</td><td>orphan</td></tr>
      <tr><td>single cell row</td></tr>
      <tr><td>Empty</td><td>   </td></tr>
    </table></body></html>`

	doc, err := FromHTML([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keys := doc.Pairs.Keys()
	if strings.Join(keys, ",") != "A,B" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if _, ok := doc.Pairs.Get("orphan"); ok {
		t.Fatalf("trailing unpaired cell should be discarded")
	}
	if _, ok := doc.Pairs.Get("Empty"); ok {
		t.Fatalf("pair with empty value should be skipped")
	}
}

func TestFromHTML_StripsInteractiveSubElements(t *testing.T) {
	html := `<html><body><table>
      <tr>
        <td>የከፋይ ስም/Payer Name:<i class="fa fa-user"></i></td>
        <td>Abebe&nbsp;&nbsp;Kebede <a href="/x">edit</a><button>copy</button><script>var x = 1;</script></td>
      </tr>
    </table></body></html>`

	doc, err := FromHTML([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := doc.Pairs.Get("የከፋይ ስም/Payer Name")
	if !ok {
		t.Fatalf("expected cleaned bilingual label, got keys %v", doc.Pairs.Keys())
	}
	if v != "Abebe Kebede" {
		t.Fatalf("expected stripped value, got %q", v)
	}
	// Body text is read from the untouched tree.
	if !strings.Contains(doc.Text, "edit") {
		t.Fatalf("body text should keep link labels, got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "var x") {
		t.Fatalf("body text must not include script, got %q", doc.Text)
	}
}

func TestFromHTML_BodyTextSeparatesCells(t *testing.T) {
	html := `<html><head><title> Receipt </title></head><body><table>
      <tr><td>Settled Amount</td><td>1,234.50 Birr</td></tr><tr><td>Invoice No.</td><td>ABC12345XYZ</td></tr>
    </table></body></html>`

	doc, err := FromHTML([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Receipt" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	want := "Settled Amount 1,234.50 Birr Invoice No. ABC12345XYZ"
	if doc.Text != want {
		t.Fatalf("body text = %q, want %q", doc.Text, want)
	}
}

func TestFromHTML_NestedTableCellsStayInTheirRow(t *testing.T) {
	html := `<html><body><table>
      <tr><td>Outer</td><td><table><tr><td>Inner</td><td>x</td></tr></table></td></tr>
    </table></body></html>`

	doc, err := FromHTML([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := doc.Pairs.Get("Inner"); v != "x" {
		t.Fatalf("inner row should produce its own pair, got %q", v)
	}
	if v, _ := doc.Pairs.Get("Outer"); v != "Inner x" {
		t.Fatalf("outer value should be the inner table text, got %q", v)
	}
}

func TestPairs_JSONKeepsOrder(t *testing.T) {
	p := NewPairs("z", "1", "a", "2", "z", "3")
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"z":"1","a":"2"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var back Pairs
	if err := json.Unmarshal([]byte(`{"b":"x","a":"y"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if strings.Join(back.Keys(), ",") != "b,a" {
		t.Fatalf("unexpected order %v", back.Keys())
	}
}

func BenchmarkFromHTML(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("<html><body><table>")
	for i := 0; i < 200; i++ {
		sb.WriteString("<tr><td>የከፋይ ስም/Payer Name</td><td>Abebe Kebede Tesfaye <a href='#'>x</a></td></tr>")
	}
	sb.WriteString("</table></body></html>")
	input := []byte(sb.String())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = FromHTML(input)
	}
}
