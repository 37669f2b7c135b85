package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType is validated once at the API boundary; the rest of the
// code never branches on raw strings.
type QuestionType string

const (
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Paragraph      QuestionType = "PARAGRAPH"
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	Checkboxes     QuestionType = "CHECKBOXES"
	Dropdown       QuestionType = "DROPDOWN"
)

func ParseQuestionType(s string) (QuestionType, error) {
	switch t := QuestionType(s); t {
	case ShortAnswer, Paragraph, MultipleChoice, Checkboxes, Dropdown:
		return t, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// FreeText reports whether answers to this type are plain text.
func (t QuestionType) FreeText() bool {
	return t == ShortAnswer || t == Paragraph
}

// OptionBacked reports whether this type carries a set of options.
func (t QuestionType) OptionBacked() bool {
	return t == MultipleChoice || t == Checkboxes || t == Dropdown
}

type Form struct {
	ID                 string       `json:"id,omitempty"`
	Owner              string       `json:"-"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Published          bool         `json:"published"`
	AcceptingResponses bool         `json:"acceptingResponses"`
	Settings           FormSettings `json:"settings"`
	Sections           []Section    `json:"sections,omitempty"`
}

// FormSettings holds display and quiz toggles; persisted as a single
// JSON column.
type FormSettings struct {
	IsQuiz           bool `json:"isQuiz,omitempty"`
	CollectEmail     bool `json:"collectEmail,omitempty"`
	ShowProgressBar  bool `json:"showProgressBar,omitempty"`
	ShuffleQuestions bool `json:"shuffleQuestions,omitempty"`
}

type Section struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID                  string       `json:"id,omitempty"`
	Text                string       `json:"text"`
	Description         string       `json:"description,omitempty"`
	Type                QuestionType `json:"type"`
	Required            bool         `json:"required,omitempty"`
	ImageURL            string       `json:"imageUrl,omitempty"`
	Points              int          `json:"points,omitempty"`
	CorrectAnswers      []string     `json:"correctAnswers,omitempty"`
	ShuffleOptionsOrder bool         `json:"shuffleOptionsOrder,omitempty"`
	Options             []Option     `json:"options,omitempty"`
}

type Option struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// FormUpdate is the full desired form carried by a PUT /forms/{id} call.
// Legacy clients send a flat questions list instead of sections.
type FormUpdate struct {
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Published          bool         `json:"published"`
	AcceptingResponses bool         `json:"acceptingResponses"`
	Settings           FormSettings `json:"settings"`
	Sections           []Section    `json:"sections"`
	Questions          []Question   `json:"questions"`
}

// Normalize wraps the legacy flat questions list into one default
// section when no sections were given.
func (u *FormUpdate) Normalize() {
	if len(u.Sections) == 0 && len(u.Questions) > 0 {
		u.Sections = []Section{{Title: "Untitled Section", Questions: u.Questions}}
	}
	u.Questions = nil
}

type Response struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	Email     string    `json:"email,omitempty"`
	Score     int       `json:"score,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Answers   []Answer  `json:"answers,omitempty"`
}

type Answer struct {
	ID         string      `json:"id,omitempty"`
	QuestionID string      `json:"questionId"`
	Value      AnswerValue `json:"value"`
}

// AnswerValue is either free text or a list of selected option texts.
// Exactly one of the two is set.
type AnswerValue struct {
	Text     string
	Selected []string
}

func (v AnswerValue) IsMulti() bool { return v.Selected != nil }

// Blank reports whether the value counts as unanswered for
// required-field validation.
func (v AnswerValue) Blank() bool {
	if v.IsMulti() {
		return len(v.Selected) == 0
	}
	return v.Text == ""
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.IsMulti() {
		return json.Marshal(v.Selected)
	}
	return json.Marshal(v.Text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = AnswerValue{Text: text}
		return nil
	}
	var selected []string
	if err := json.Unmarshal(data, &selected); err != nil {
		return fmt.Errorf("answer value must be a string or a list of strings")
	}
	if selected == nil {
		selected = []string{}
	}
	*v = AnswerValue{Selected: selected}
	return nil
}
