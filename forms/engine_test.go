package forms

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SambhavSharma7781/Forms4U-sub000/model"
)

// createTestDB creates an in-memory SQLite database with the structural
// part of the schema.
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// a second pool connection would see a different empty :memory: db
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	schema := `
		CREATE TABLE form (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			published INTEGER NOT NULL DEFAULT 0,
			accepting_responses INTEGER NOT NULL DEFAULT 1,
			settings TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE section (
			id TEXT PRIMARY KEY,
			form_id TEXT NOT NULL REFERENCES form (id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			ord INTEGER NOT NULL
		);

		CREATE TABLE question (
			id TEXT PRIMARY KEY,
			section_id TEXT NOT NULL REFERENCES section (id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL CHECK (type IN ('SHORT_ANSWER', 'PARAGRAPH', 'MULTIPLE_CHOICE', 'CHECKBOXES', 'DROPDOWN')),
			required INTEGER NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 0,
			correct_answers TEXT NOT NULL DEFAULT '[]',
			shuffle_options INTEGER NOT NULL DEFAULT 0,
			ord INTEGER NOT NULL
		);

		CREATE TABLE question_option (
			id TEXT PRIMARY KEY,
			question_id TEXT NOT NULL REFERENCES question (id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			ord INTEGER NOT NULL
		);

		CREATE TABLE response (
			id TEXT PRIMARY KEY,
			form_id TEXT NOT NULL REFERENCES form (id) ON DELETE CASCADE,
			email TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE answer (
			id TEXT PRIMARY KEY,
			response_id TEXT NOT NULL REFERENCES response (id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES question (id),
			value TEXT NOT NULL DEFAULT '',
			selected TEXT NOT NULL DEFAULT 'null'
		);`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec failed: %v\nquery: %s", err, query)
	}
}

func seedForm(t *testing.T, db *sql.DB, id string) {
	mustExec(t, db, `
		INSERT INTO form (id, owner, title, description, published)
		VALUES (?, 'alice', 'Old title', 'Old description', 1)`,
		id)
}

func seedSection(t *testing.T, db *sql.DB, id, formID string, ord int, title string) {
	mustExec(t, db, `
		INSERT INTO section (id, form_id, title, ord) VALUES (?, ?, ?, ?)`,
		id, formID, title, ord)
}

func seedQuestion(t *testing.T, db *sql.DB, id, sectionID string, ord int, text string, qtype model.QuestionType) {
	mustExec(t, db, `
		INSERT INTO question (id, section_id, text, type, ord) VALUES (?, ?, ?, ?, ?)`,
		id, sectionID, text, string(qtype), ord)
}

func seedOption(t *testing.T, db *sql.DB, id, questionID string, ord int, text string) {
	mustExec(t, db, `
		INSERT INTO question_option (id, question_id, text, ord) VALUES (?, ?, ?, ?)`,
		id, questionID, text, ord)
}

func seedResponse(t *testing.T, db *sql.DB, id, formID string) {
	mustExec(t, db, `
		INSERT INTO response (id, form_id) VALUES (?, ?)`,
		id, formID)
}

func seedAnswer(t *testing.T, db *sql.DB, id, responseID, questionID, value string) {
	mustExec(t, db, `
		INSERT INTO answer (id, response_id, question_id, value) VALUES (?, ?, ?, ?)`,
		id, responseID, questionID, value)
}

// treeSection is a comparable snapshot of one stored section, in display
// order, used with go-cmp in assertions.
type treeSection struct {
	ID        string
	Title     string
	Questions []treeQuestion
}

type treeQuestion struct {
	ID      string
	Text    string
	Type    string
	Options []string
}

func loadTree(t *testing.T, db *sql.DB, formID string) []treeSection {
	t.Helper()

	rows, err := db.Query(`
		SELECT id, title FROM section WHERE form_id = ? ORDER BY ord`,
		formID)
	if err != nil {
		t.Fatalf("load sections: %v", err)
	}
	defer rows.Close()

	var tree []treeSection
	for rows.Next() {
		sec := treeSection{}
		if err := rows.Scan(&sec.ID, &sec.Title); err != nil {
			t.Fatalf("scan section: %v", err)
		}
		tree = append(tree, sec)
	}
	rows.Close()

	for i := range tree {
		qrows, err := db.Query(`
			SELECT id, text, type FROM question WHERE section_id = ? ORDER BY ord`,
			tree[i].ID)
		if err != nil {
			t.Fatalf("load questions: %v", err)
		}
		for qrows.Next() {
			q := treeQuestion{}
			if err := qrows.Scan(&q.ID, &q.Text, &q.Type); err != nil {
				t.Fatalf("scan question: %v", err)
			}
			tree[i].Questions = append(tree[i].Questions, q)
		}
		qrows.Close()

		for j := range tree[i].Questions {
			orows, err := db.Query(`
				SELECT text FROM question_option WHERE question_id = ? ORDER BY ord`,
				tree[i].Questions[j].ID)
			if err != nil {
				t.Fatalf("load options: %v", err)
			}
			for orows.Next() {
				var text string
				if err := orows.Scan(&text); err != nil {
					t.Fatalf("scan option: %v", err)
				}
				tree[i].Questions[j].Options = append(tree[i].Questions[j].Options, text)
			}
			orows.Close()
		}
	}
	return tree
}

func stripIDs(tree []treeSection) []treeSection {
	stripped := make([]treeSection, len(tree))
	for i, sec := range tree {
		sec.ID = ""
		sec.Questions = append([]treeQuestion(nil), sec.Questions...)
		for j := range sec.Questions {
			sec.Questions[j].ID = ""
		}
		stripped[i] = sec
	}
	return stripped
}

// assertNoOrphanAnswers checks that no stored answer references a
// question that is gone.
func assertNoOrphanAnswers(t *testing.T, db *sql.DB) {
	t.Helper()
	var orphans int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM answer a
		LEFT JOIN question q ON (a.question_id = q.id)
		WHERE q.id IS NULL`).Scan(&orphans)
	if err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected no orphaned answers, found %d", orphans)
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func applyUpdate(t *testing.T, db *sql.DB, formID string, upd model.FormUpdate) *Result {
	t.Helper()
	res, err := Engine{DB: db}.Apply(context.Background(), formID, upd)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return res
}

func TestFullReplaceWhenNoResponses(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "s1", "f1", 0, "Old section")
	seedQuestion(t, db, "q1", "s1", 0, "Old question", model.ShortAnswer)
	seedOption(t, db, "o1", "q1", 0, "orphan option") // never valid for short answer, wiped either way

	upd := model.FormUpdate{
		Title: "New title",
		Sections: []model.Section{
			{Title: "First", Questions: []model.Question{
				{Text: "Name?", Type: model.ShortAnswer},
				{Text: "Color?", Type: model.Dropdown, Options: []model.Option{
					{Text: "Red"}, {Text: "Blue"},
				}},
			}},
			{Title: "Second", Questions: []model.Question{
				{Text: "Story?", Type: model.Paragraph},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	want := []treeSection{
		{Title: "First", Questions: []treeQuestion{
			{Text: "Name?", Type: "SHORT_ANSWER"},
			{Text: "Color?", Type: "DROPDOWN", Options: []string{"Red", "Blue"}},
		}},
		{Title: "Second", Questions: []treeQuestion{
			{Text: "Story?", Type: "PARAGRAPH"},
		}},
	}
	if diff := cmp.Diff(want, stripIDs(loadTree(t, db, "f1"))); diff != "" {
		t.Errorf("stored tree mismatch (-want +got):\n%s", diff)
	}

	var title string
	if err := db.QueryRow(`SELECT title FROM form WHERE id = 'f1'`).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "New title" {
		t.Errorf("form title = %q, want %q", title, "New title")
	}
}

func TestFullReplaceReusesRealIDsOnRetry(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{Title: "Only", Questions: []model.Question{
				{Text: "Q", Type: model.ShortAnswer},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)
	first := loadTree(t, db, "f1")

	// a retry carries the ids assigned by the previous attempt
	upd.Sections[0].ID = first[0].ID
	upd.Sections[0].Questions[0].ID = first[0].Questions[0].ID
	applyUpdate(t, db, "f1", upd)

	if diff := cmp.Diff(first, loadTree(t, db, "f1")); diff != "" {
		t.Errorf("retry did not converge (-first +second):\n%s", diff)
	}
}

func TestTempIDsTreatedAsNew(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "temp_1", Title: "S", Questions: []model.Question{
				{ID: "temp_q1", Text: "Q", Type: model.ShortAnswer},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	tree := loadTree(t, db, "f1")
	if len(tree) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree))
	}
	if strings.HasPrefix(tree[0].ID, "temp_") {
		t.Errorf("placeholder section id was persisted: %s", tree[0].ID)
	}
	if strings.HasPrefix(tree[0].Questions[0].ID, "temp_") {
		t.Errorf("placeholder question id was persisted: %s", tree[0].Questions[0].ID)
	}
}

func TestMovePreservesAnswers(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedSection(t, db, "sB", "f1", 1, "B")
	seedQuestion(t, db, "q1", "sA", 0, "Q1", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q1", "hello")
	seedAnswer(t, db, "a2", "r1", "q1", "world")

	// move q1 into B, drop A from the payload entirely
	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sB", Title: "B", Questions: []model.Question{
				{ID: "q1", Text: "Q1", Type: model.ShortAnswer},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	want := []treeSection{
		{ID: "sB", Title: "B", Questions: []treeQuestion{
			{ID: "q1", Text: "Q1", Type: "SHORT_ANSWER"},
		}},
	}
	if diff := cmp.Diff(want, loadTree(t, db, "f1")); diff != "" {
		t.Errorf("stored tree mismatch (-want +got):\n%s", diff)
	}

	if n := countRows(t, db, `SELECT COUNT(*) FROM answer WHERE question_id = 'q1'`); n != 2 {
		t.Errorf("expected 2 answers preserved, got %d", n)
	}
	assertNoOrphanAnswers(t, db)
}

func TestTypeChangeWithAnswers(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedQuestion(t, db, "q1", "sA", 0, "Free text", model.ShortAnswer)
	seedQuestion(t, db, "q2", "sA", 1, "Also free", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q1", "answered")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sA", Title: "A", Questions: []model.Question{
				// free-text to free-text is always safe
				{ID: "q1", Text: "Longer now", Type: model.Paragraph},
				{ID: "q2", Text: "Also free", Type: model.ShortAnswer},
			}},
		},
	}
	res := applyUpdate(t, db, "f1", upd)
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	var qtype string
	if err := db.QueryRow(`SELECT type FROM question WHERE id = 'q1'`).Scan(&qtype); err != nil {
		t.Fatal(err)
	}
	if qtype != "PARAGRAPH" {
		t.Errorf("q1 type = %s, want PARAGRAPH", qtype)
	}
}

func TestUnsafeTypeChangeSkipped(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedQuestion(t, db, "q1", "sA", 0, "Free text", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q1", "answered")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sA", Title: "A", Questions: []model.Question{
				{ID: "q1", Text: "Pick one", Type: model.MultipleChoice, Options: []model.Option{
					{Text: "Yes"}, {Text: "No"},
				}},
			}},
		},
	}
	res := applyUpdate(t, db, "f1", upd)

	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", res.Warnings)
	}

	// the denial is local: type, text and options stay untouched
	var text, qtype string
	if err := db.QueryRow(`SELECT text, type FROM question WHERE id = 'q1'`).Scan(&text, &qtype); err != nil {
		t.Fatal(err)
	}
	if qtype != "SHORT_ANSWER" || text != "Free text" {
		t.Errorf("question was updated despite denial: text=%q type=%s", text, qtype)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM question_option WHERE question_id = 'q1'`); n != 0 {
		t.Errorf("options were created despite denial: %d", n)
	}

	// the question must survive pruning
	if n := countRows(t, db, `SELECT COUNT(*) FROM question WHERE id = 'q1'`); n != 1 {
		t.Error("denied question was pruned")
	}
}

func TestUnsafeTypeChangeAllowedWithoutAnswers(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedQuestion(t, db, "q1", "sA", 0, "Free text", model.ShortAnswer)
	seedQuestion(t, db, "q2", "sA", 1, "Answered one", model.ShortAnswer)
	// the form has responses, but none for q1
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q2", "x")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sA", Title: "A", Questions: []model.Question{
				{ID: "q1", Text: "Pick one", Type: model.MultipleChoice, Options: []model.Option{
					{Text: "Yes"}, {Text: "No"},
				}},
				{ID: "q2", Text: "Answered one", Type: model.ShortAnswer},
			}},
		},
	}
	res := applyUpdate(t, db, "f1", upd)
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	var qtype string
	if err := db.QueryRow(`SELECT type FROM question WHERE id = 'q1'`).Scan(&qtype); err != nil {
		t.Fatal(err)
	}
	if qtype != "MULTIPLE_CHOICE" {
		t.Errorf("q1 type = %s, want MULTIPLE_CHOICE", qtype)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM question_option WHERE question_id = 'q1'`); n != 2 {
		t.Errorf("expected 2 options, got %d", n)
	}
}

func TestSectionReorderKeepsDenseOrder(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedSection(t, db, "sB", "f1", 1, "B")
	seedQuestion(t, db, "q1", "sA", 0, "Q1", model.ShortAnswer)
	seedQuestion(t, db, "q2", "sB", 0, "Q2", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q1", "x")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sB", Title: "B", Questions: []model.Question{
				{ID: "q2", Text: "Q2", Type: model.ShortAnswer},
			}},
			{ID: "sA", Title: "A", Questions: []model.Question{
				{ID: "q1", Text: "Q1", Type: model.ShortAnswer},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	rows, err := db.Query(`SELECT id, ord FROM section WHERE form_id = 'f1' ORDER BY ord`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var got []string
	prev := -1
	for rows.Next() {
		var id string
		var ord int
		if err := rows.Scan(&id, &ord); err != nil {
			t.Fatal(err)
		}
		if ord != prev+1 {
			t.Errorf("order not dense: got ord %d after %d", ord, prev)
		}
		prev = ord
		got = append(got, id)
	}
	if diff := cmp.Diff([]string{"sB", "sA"}, got); diff != "" {
		t.Errorf("section order mismatch (-want +got):\n%s", diff)
	}
}

func TestExcessPruning(t *testing.T) {
	// the concrete scenario from the design discussion: section A with an
	// answered question survives renamed, section B and its unanswered
	// question disappear, a new question lands in A
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedSection(t, db, "sB", "f1", 1, "B")
	seedQuestion(t, db, "q1", "sA", 0, "Q1", model.ShortAnswer)
	seedQuestion(t, db, "q2", "sB", 0, "Q2", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q1", "one")
	seedAnswer(t, db, "a2", "r1", "q1", "two")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sA", Title: "A renamed", Questions: []model.Question{
				{ID: "q1", Text: "Q1", Type: model.ShortAnswer},
				{Text: "Q3", Type: model.ShortAnswer},
			}},
		},
	}
	res := applyUpdate(t, db, "f1", upd)
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	tree := loadTree(t, db, "f1")
	if len(tree) != 1 || tree[0].Title != "A renamed" {
		t.Fatalf("expected single renamed section, got %+v", tree)
	}
	if len(tree[0].Questions) != 2 {
		t.Fatalf("expected 2 questions, got %+v", tree[0].Questions)
	}
	if tree[0].Questions[0].ID != "q1" {
		t.Errorf("q1 missing from section: %+v", tree[0].Questions)
	}

	if n := countRows(t, db, `SELECT COUNT(*) FROM answer WHERE question_id = 'q1'`); n != 2 {
		t.Errorf("expected q1 answers intact, got %d", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM question WHERE id = 'q2'`); n != 0 {
		t.Error("q2 should have been pruned")
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM section WHERE id = 'sB'`); n != 0 {
		t.Error("sB should have been pruned")
	}
	assertNoOrphanAnswers(t, db)
}

func TestPruneDeletesAnsweredQuestion(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedQuestion(t, db, "q1", "sA", 0, "Q1", model.ShortAnswer)
	seedQuestion(t, db, "q2", "sA", 1, "Q2", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q2", "will be dropped")

	// q2 is simply gone from the payload: its answers go with it
	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "sA", Title: "A", Questions: []model.Question{
				{ID: "q1", Text: "Q1", Type: model.ShortAnswer},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	if n := countRows(t, db, `SELECT COUNT(*) FROM question WHERE id = 'q2'`); n != 0 {
		t.Error("q2 should have been pruned")
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM answer`); n != 0 {
		t.Errorf("q2 answers should have been deleted, %d left", n)
	}
	assertNoOrphanAnswers(t, db)
}

func TestAtomicRollbackOnFailure(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedSection(t, db, "sA", "f1", 0, "A")
	seedQuestion(t, db, "q1", "sA", 0, "Q1", model.ShortAnswer)
	seedResponse(t, db, "r1", "f1")
	seedAnswer(t, db, "a1", "r1", "q1", "x")

	before := loadTree(t, db, "f1")

	// the second question carries a type the schema rejects; the engine
	// is below boundary validation, so the insert itself fails
	upd := model.FormUpdate{
		Title: "Changed title",
		Sections: []model.Section{
			{ID: "sA", Title: "A renamed", Questions: []model.Question{
				{ID: "q1", Text: "Q1 renamed", Type: model.ShortAnswer},
				{Text: "Broken", Type: model.QuestionType("BOGUS")},
			}},
		},
	}
	_, err := Engine{DB: db}.Apply(context.Background(), "f1", upd)
	if err == nil {
		t.Fatal("expected Apply to fail")
	}

	if diff := cmp.Diff(before, loadTree(t, db, "f1")); diff != "" {
		t.Errorf("structure changed despite failure (-before +after):\n%s", diff)
	}

	var title string
	if err := db.QueryRow(`SELECT title FROM form WHERE id = 'f1'`).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Old title" {
		t.Errorf("form title changed despite failure: %q", title)
	}
}

func TestFormNotFound(t *testing.T) {
	db := createTestDB(t)

	_, err := Engine{DB: db}.Apply(context.Background(), "missing", model.FormUpdate{Title: "T"})
	if err != ErrFormNotFound {
		t.Errorf("err = %v, want ErrFormNotFound", err)
	}
}

func TestLegacyFlatQuestionsWrapped(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")

	upd := model.FormUpdate{
		Title: "T",
		Questions: []model.Question{
			{Text: "Q1", Type: model.ShortAnswer},
			{Text: "Q2", Type: model.Paragraph},
		},
	}
	applyUpdate(t, db, "f1", upd)

	want := []treeSection{
		{Title: "Untitled Section", Questions: []treeQuestion{
			{Text: "Q1", Type: "SHORT_ANSWER"},
			{Text: "Q2", Type: "PARAGRAPH"},
		}},
	}
	if diff := cmp.Diff(want, stripIDs(loadTree(t, db, "f1"))); diff != "" {
		t.Errorf("stored tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBlankOptionsFiltered(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{Title: "S", Questions: []model.Question{
				{Text: "Pick", Type: model.Checkboxes, Options: []model.Option{
					{Text: "Keep"}, {Text: "   "}, {Text: ""}, {Text: "Also keep"},
				}},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	tree := loadTree(t, db, "f1")
	got := tree[0].Questions[0].Options
	if diff := cmp.Diff([]string{"Keep", "Also keep"}, got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestForeignIDTreatedAsNew(t *testing.T) {
	db := createTestDB(t)
	seedForm(t, db, "f1")
	seedForm(t, db, "f2")
	seedSection(t, db, "other", "f2", 0, "Belongs to f2")

	upd := model.FormUpdate{
		Title: "T",
		Sections: []model.Section{
			{ID: "other", Title: "Hijack attempt", Questions: []model.Question{
				{Text: "Q", Type: model.ShortAnswer},
			}},
		},
	}
	applyUpdate(t, db, "f1", upd)

	// f2's section is untouched; f1 got a fresh one
	var title string
	if err := db.QueryRow(`SELECT title FROM section WHERE id = 'other'`).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Belongs to f2" {
		t.Errorf("foreign section was modified: %q", title)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM section WHERE form_id = 'f1'`); n != 1 {
		t.Errorf("expected 1 section under f1, got %d", n)
	}
}
