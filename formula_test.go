package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := NewDocument(DocumentOptions{Latex: src})
	require.NoError(t, err)
	return doc
}

func TestNewDocument(t *testing.T) {
	doc := newDoc(t, "a+b")
	assert.Equal(t, "a+b", doc.Latex())
	assert.Equal(t, "a+b", doc.Ranges().ToLatex())
	assert.True(t, doc.SourceValid())
}

func TestNewDocumentRejectsBadSource(t *testing.T) {
	_, err := NewDocument(DocumentOptions{Latex: `\frac{`})
	assert.Error(t, err)
}

func TestCommitLatexReplacesFormula(t *testing.T) {
	doc := newDoc(t, "a")
	require.NoError(t, doc.CommitLatex(`\frac{x}{y}`))
	assert.Equal(t, `\frac{x}{y}`, doc.Latex())
}

func TestCommitLatexRejectKeepsOldState(t *testing.T) {
	doc := newDoc(t, "a+b")
	err := doc.CommitLatex(`\frac{}{x}`)
	require.ErrorIs(t, err, ErrEditRejected)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, "a+b", doc.Latex())
	assert.True(t, doc.SourceValid())
}

func TestApplyTextEditValid(t *testing.T) {
	doc := newDoc(t, "ab")
	require.NoError(t, doc.ApplyTextEdit(ContentChange{Op: ChangeInsert, From: 1, Inserted: "+"}))
	assert.Equal(t, "a+b", doc.Latex())
	assert.True(t, doc.SourceValid())
}

func TestApplyTextEditInvalidKeepsText(t *testing.T) {
	// A mid-edit state that does not parse keeps the user's text while
	// the last good tree stays authoritative.
	doc := newDoc(t, "ab")
	require.NoError(t, doc.ApplyTextEdit(ContentChange{Op: ChangeInsert, From: 2, Inserted: `\frac{`}))
	assert.False(t, doc.SourceValid())
	assert.Equal(t, `ab\frac{`, doc.Ranges().ToLatex())
	assert.Equal(t, "ab", doc.Latex())

	// Completing the construct recovers.
	require.NoError(t, doc.ApplyTextEdit(ContentChange{Op: ChangeInsert, From: 8, Inserted: "x}{y}"}))
	assert.True(t, doc.SourceValid())
	assert.Equal(t, `ab\frac{x}{y}`, doc.Latex())
}

func TestDocumentCaretExtendsActiveStyle(t *testing.T) {
	doc := newDoc(t, `\textcolor{red}{x}`)
	doc.SetCaret(17) // inside the styled body
	require.NoError(t, doc.ApplyTextEdit(ContentChange{Op: ChangeInsert, From: 18, Inserted: "y"}))
	assert.Equal(t, `\textcolor{red}{xy}`, doc.Latex())
}

func TestDocumentCaretOutsideEscapesStyle(t *testing.T) {
	doc := newDoc(t, `\textcolor{red}{x}`)
	doc.SetCaret(0)
	require.NoError(t, doc.ApplyTextEdit(ContentChange{Op: ChangeInsert, From: 18, Inserted: "y"}))
	assert.Equal(t, `\textcolor{red}{x}y`, doc.Latex())
}

func TestSyncSource(t *testing.T) {
	doc := newDoc(t, "a+b")
	require.NoError(t, doc.SyncSource("a-b+c"))
	assert.Equal(t, "a-b+c", doc.Latex())
}

func TestDocumentReplace(t *testing.T) {
	doc := newDoc(t, "a+a")
	require.NoError(t, doc.Replace(func(n Node) Node {
		if s, ok := n.(*Symbol); ok && s.Value == "a" {
			return &Symbol{Value: "x"}
		}
		return n
	}))
	assert.Equal(t, "x+x", doc.Latex())
}

func TestApplyColorToSelection(t *testing.T) {
	doc := newDoc(t, "a+b")
	doc.Select("0", "1", "2")
	require.NoError(t, doc.ApplyColor("red"))
	assert.Equal(t, `\textcolor{red}{a+b}`, doc.Latex())
	assert.Empty(t, doc.ResolvedSelection(), "selection clears after a style commit")
}

func TestApplyColorSingleNode(t *testing.T) {
	doc := newDoc(t, "a+b")
	doc.Select("2")
	require.NoError(t, doc.ApplyColor("blue"))
	assert.Equal(t, `a+\textcolor{blue}{b}`, doc.Latex())
}

func TestApplyColorEmptySelection(t *testing.T) {
	doc := newDoc(t, "a+b")
	err := doc.ApplyColor("red")
	require.ErrorIs(t, err, ErrEditRejected)
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, "a+b", doc.Latex())
}

func TestApplyColorNonAdjacentRuns(t *testing.T) {
	doc := newDoc(t, "a+b")
	doc.Select("0", "2")
	require.NoError(t, doc.ApplyColor("red"))
	assert.Equal(t, `\textcolor{red}{a}+\textcolor{red}{b}`, doc.Latex())
}

func TestApplyColorToFractionSlot(t *testing.T) {
	doc := newDoc(t, `\frac{x}{y}`)
	doc.Select("0.numerator")
	require.NoError(t, doc.ApplyColor("red"))
	assert.Equal(t, `\frac{\textcolor{red}{x}}{y}`, doc.Latex())
}

func TestApplyColorToAlignedCell(t *testing.T) {
	doc := newDoc(t, `\begin{aligned}a&b\end{aligned}`)
	doc.Select("0.0.0")
	require.NoError(t, doc.ApplyColor("red"))
	assert.Equal(t, `\begin{aligned}\textcolor{red}{a}&b\end{aligned}`, doc.Latex())
}

func TestApplyBox(t *testing.T) {
	doc := newDoc(t, "a+b")
	doc.Select("0", "1")
	require.NoError(t, doc.ApplyBox("blue", "white"))
	assert.Equal(t, `\fcolorbox{blue}{white}{a+}b`, doc.Latex())
}

func TestApplyBrace(t *testing.T) {
	doc := newDoc(t, "a+b")
	doc.Select("0", "1", "2")
	require.NoError(t, doc.ApplyBrace(true))
	assert.Equal(t, `\overbrace{a+b}`, doc.Latex())
}

func TestApplyStrikethrough(t *testing.T) {
	doc := newDoc(t, "x")
	doc.Select("0")
	require.NoError(t, doc.ApplyStrikethrough())
	assert.Equal(t, `\cancel{x}`, doc.Latex())
}

func TestApplyStyleUsesPromotedSelection(t *testing.T) {
	// Selecting both fraction slots styles the whole fraction.
	doc := newDoc(t, `\frac{a}{b}`)
	doc.Select("0.numerator", "0.denominator")
	require.NoError(t, doc.ApplyColor("red"))
	assert.Equal(t, `\textcolor{red}{\frac{a}{b}}`, doc.Latex())
}

func TestDocumentUndoRedo(t *testing.T) {
	doc := newDoc(t, "a")
	require.NoError(t, doc.CommitLatex("a+b"))
	require.NoError(t, doc.CommitLatex("a+b+c"))

	require.NoError(t, doc.Undo())
	assert.Equal(t, "a+b", doc.Latex())
	require.NoError(t, doc.Undo())
	assert.Equal(t, "a", doc.Latex())
	assert.ErrorIs(t, doc.Undo(), ErrNoHistory)

	require.NoError(t, doc.Redo())
	assert.Equal(t, "a+b", doc.Latex())
	require.NoError(t, doc.Redo())
	assert.Equal(t, "a+b+c", doc.Latex())
	assert.ErrorIs(t, doc.Redo(), ErrNoHistory)
}

func TestDocumentUndoCoversStyleEdits(t *testing.T) {
	doc := newDoc(t, "a+b")
	doc.Select("0", "1", "2")
	require.NoError(t, doc.ApplyColor("red"))
	require.NoError(t, doc.Undo())
	assert.Equal(t, "a+b", doc.Latex())
}

func TestDocumentRejectedEditNotRecorded(t *testing.T) {
	doc := newDoc(t, "a")
	_ = doc.CommitLatex(`\frac{`)
	assert.ErrorIs(t, doc.Undo(), ErrNoHistory)
}

func TestDocumentSelectUnknownID(t *testing.T) {
	doc := newDoc(t, "a")
	doc.Select("zz")
	assert.Empty(t, doc.ResolvedSelection())
}

func TestRenderGenerations(t *testing.T) {
	doc := newDoc(t, "a")
	latex, gen1 := doc.BeginRender()
	assert.Equal(t, `\cssId{0}{a}`, latex)

	_, gen2 := doc.BeginRender()
	assert.Greater(t, gen2, gen1)

	// Output for the superseded generation is discarded.
	_, err := doc.CompleteRender(gen1, `<span id="0">a</span>`)
	assert.ErrorIs(t, err, ErrStaleRender)

	spec, err := doc.CompleteRender(gen2, `<span id="0">a</span>`)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "span", spec.TagName)
	assert.Equal(t, "0", spec.ID)
}

func TestDocumentVariables(t *testing.T) {
	vars, err := ParseVariableConfig([]byte("x:\n  type: fixed\n  value: 3\n"))
	require.NoError(t, err)
	doc, err := NewDocument(DocumentOptions{Latex: "x", Variables: vars})
	require.NoError(t, err)
	assert.Equal(t, VariableFixed, doc.Variables()["x"].Kind)
}
