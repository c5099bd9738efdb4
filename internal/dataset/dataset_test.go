package dataset

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func mustRead(t *testing.T, text string, names ...string) *Table {
	t.Helper()
	tbl, err := ReadDelimited(strings.NewReader(text), ' ', names...)
	if err != nil {
		t.Fatalf("ReadDelimited: %v", err)
	}
	return tbl
}

func TestReadDelimitedInfersKinds(t *testing.T) {
	tbl := mustRead(t, "en Main_Page 500 900\nen Cat 300 400\nde 1999 50 80\n",
		"domain_code", "page_title", "count_views", "total_response_size")

	if tbl.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tbl.Len())
	}
	want := []Column{
		{"domain_code", String},
		{"page_title", String},
		{"count_views", Int},
		{"total_response_size", Int},
	}
	got := tbl.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, got[i], want[i])
		}
	}

	row := tbl.Row(2)
	if row.Text("page_title") != "1999" {
		t.Errorf("page_title = %q", row.Text("page_title"))
	}
	if v, ok := row.Int("count_views"); !ok || v != 50 {
		t.Errorf("count_views = %d, %v", v, ok)
	}
}

func TestReadDelimitedArityFollowsSource(t *testing.T) {
	names := []string{"domain_code", "page_title", "count_views", "total_response_size"}

	blacklist := mustRead(t, "en Main_Page\nde Hund\n", names...)
	if cols := blacklist.Columns(); len(cols) != 2 {
		t.Fatalf("blacklist columns = %v, want 2", cols)
	}
	if _, ok := blacklist.Column("count_views"); ok {
		t.Error("blacklist should not have count_views")
	}

	wide := mustRead(t, "a b 1 2 3\n", names...)
	if _, ok := wide.Column("_c4"); !ok {
		t.Errorf("expected positional name _c4, got %v", wide.Columns())
	}
}

func TestReadDelimitedPadsShortRows(t *testing.T) {
	tbl := mustRead(t, "en A 10 1\nen B\n", "domain_code", "page_title", "count_views", "total_response_size")
	row := tbl.Row(1)
	if !row.IsNull("count_views") {
		t.Error("missing value should be null")
	}
	if c, _ := tbl.Column("count_views"); c.Kind != Int {
		t.Errorf("nulls must not change the inferred kind, got %v", c.Kind)
	}
}

func TestReadDelimitedKeepsQuotesLiteral(t *testing.T) {
	tbl := mustRead(t, "en \"Weird_Al\"_Yankovic 5 100\nen Cat 300 400\r\n\nen \"Unclosed 7 8\nde Hund 50 80\n",
		"domain_code", "page_title", "count_views", "total_response_size")

	if tbl.Len() != 4 {
		t.Fatalf("Len = %d, want 4", tbl.Len())
	}
	wantTitles := []string{`"Weird_Al"_Yankovic`, "Cat", `"Unclosed`, "Hund"}
	wantViews := []int64{5, 300, 7, 50}
	for i, r := range tbl.All() {
		if r.Text("page_title") != wantTitles[i] {
			t.Errorf("row %d page_title = %q, want %q", i, r.Text("page_title"), wantTitles[i])
		}
		if v, ok := r.Int("count_views"); !ok || v != wantViews[i] {
			t.Errorf("row %d count_views = %d, %v", i, v, ok)
		}
	}
	if c, _ := tbl.Column("total_response_size"); c.Kind != Int {
		t.Errorf("total_response_size kind = %v", c.Kind)
	}
}

func TestReadDelimitedEmpty(t *testing.T) {
	tbl := mustRead(t, "", "domain_code", "page_title")
	if tbl.Len() != 0 {
		t.Errorf("Len = %d", tbl.Len())
	}
	if _, ok := tbl.Column("page_title"); !ok {
		t.Error("empty input should still carry the requested columns")
	}
}

func TestLeftAntiJoinDifferentArity(t *testing.T) {
	views := mustRead(t, "en Main_Page 500 900\nen Cat 300 400\nde Hund 50 80\nde Main_Page 7 7\n",
		"domain_code", "page_title", "count_views", "total_response_size")
	blacklist := mustRead(t, "en Main_Page\n", "domain_code", "page_title")

	out, err := views.LeftAntiJoin(blacklist, "domain_code", "page_title")
	if err != nil {
		t.Fatalf("LeftAntiJoin: %v", err)
	}
	var got []string
	for _, r := range out.All() {
		got = append(got, r.Text("domain_code")+"/"+r.Text("page_title"))
	}
	want := "en/Cat de/Hund de/Main_Page"
	if strings.Join(got, " ") != want {
		t.Errorf("rows = %v, want %s", got, want)
	}
	if len(out.Columns()) != 4 {
		t.Errorf("anti-join must keep the left columns, got %v", out.Columns())
	}
}

func TestLeftAntiJoinMatchesAcrossKinds(t *testing.T) {
	views := mustRead(t, "en 1999 5 5\nen Cat 4 4\n", "domain_code", "page_title", "count_views", "total_response_size")
	blacklist := mustRead(t, "en 1999\nen 2000\n", "domain_code", "page_title")
	if c, _ := blacklist.Column("page_title"); c.Kind != Int {
		t.Fatalf("blacklist page_title kind = %v, want int", c.Kind)
	}

	out, err := views.LeftAntiJoin(blacklist, "domain_code", "page_title")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 || out.Row(0).Text("page_title") != "Cat" {
		t.Errorf("expected only Cat to survive, got %d rows", out.Len())
	}
}

func TestLeftAntiJoinMissingKey(t *testing.T) {
	views := mustRead(t, "en Cat 1 1\n", "domain_code", "page_title", "count_views", "total_response_size")
	other := mustRead(t, "en\n", "domain_code")
	if _, err := views.LeftAntiJoin(other, "domain_code", "page_title"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestWithRowNumber(t *testing.T) {
	tbl := mustRead(t, "en Cat 300 1\nde Hund 50 1\nen Dog 700 1\nen Cow 300 1\nde Katze 60 1\n",
		"domain_code", "page_title", "count_views", "total_response_size")

	for _, p := range []int{0, 1, 4} {
		out, err := tbl.WithRowNumber("rank", Window{
			PartitionBy: "domain_code",
			OrderBy:     "count_views",
			Descending:  true,
			ThenBy:      "page_title",
			Parallelism: p,
		})
		if err != nil {
			t.Fatalf("WithRowNumber: %v", err)
		}
		var got []string
		for _, r := range out.All() {
			rank, _ := r.Int("rank")
			got = append(got, fmt.Sprintf("%s/%s/%d", r.Text("domain_code"), r.Text("page_title"), rank))
		}
		want := "en/Dog/1 en/Cat/2 en/Cow/3 de/Katze/1 de/Hund/2"
		if strings.Join(got, " ") != want {
			t.Errorf("parallelism %d: rows = %v, want %s", p, got, want)
		}
	}
}

func TestWithRowNumberTiesGetDistinctRanks(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "en P%d 5 1\n", i)
	}
	tbl := mustRead(t, sb.String(), "domain_code", "page_title", "count_views", "total_response_size")

	out, err := tbl.WithRowNumber("rank", Window{PartitionBy: "domain_code", OrderBy: "count_views", Descending: true})
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int64]bool)
	for _, r := range out.All() {
		rank, _ := r.Int("rank")
		if seen[rank] {
			t.Fatalf("duplicate rank %d", rank)
		}
		seen[rank] = true
	}
	for r := int64(1); r <= 10; r++ {
		if !seen[r] {
			t.Errorf("missing rank %d", r)
		}
	}
}

func TestWithRowNumberNullsLast(t *testing.T) {
	tbl := mustRead(t, "en A 1 1\nen B\nen C 9 1\n", "domain_code", "page_title", "count_views", "total_response_size")
	out, err := tbl.WithRowNumber("rank", Window{PartitionBy: "domain_code", OrderBy: "count_views", Descending: true})
	if err != nil {
		t.Fatal(err)
	}
	if last := out.Row(out.Len() - 1).Text("page_title"); last != "B" {
		t.Errorf("last row = %q, want the null count B", last)
	}
}

func TestFilterDoesNotModifyReceiver(t *testing.T) {
	tbl := mustRead(t, "en A 1 1\nen B 2 2\n", "domain_code", "page_title", "count_views", "total_response_size")
	out := tbl.Filter(func(r Row) bool {
		v, _ := r.Int("count_views")
		return v > 1
	})
	if out.Len() != 1 || tbl.Len() != 2 {
		t.Errorf("Filter lengths = %d, %d", out.Len(), tbl.Len())
	}
}

func TestSelectAndRename(t *testing.T) {
	tbl := mustRead(t, "en A 1 1\n", "domain_code", "page_title", "count_views", "total_response_size")
	sel, err := tbl.Select("page_title", "domain_code")
	if err != nil {
		t.Fatal(err)
	}
	if cols := sel.Columns(); cols[0].Name != "page_title" || len(cols) != 2 {
		t.Errorf("Select columns = %v", cols)
	}
	if _, err := tbl.Select("nope"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Select(nope) err = %v", err)
	}

	renamed := tbl.Rename("_c0", "x").Rename("domain_code", "domain")
	if _, ok := renamed.Column("domain"); !ok {
		t.Error("rename failed")
	}
	if _, ok := tbl.Column("domain_code"); !ok {
		t.Error("Rename modified the receiver")
	}
}
