package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bluffton/formula"
)

// REPL holds the state of the interactive session
type REPL struct {
	doc    *formula.Document
	reader *bufio.Reader
	logger *slog.Logger
}

func main() {
	fmt.Println("Formula REPL - Interactive Formula Editor Demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	repl := &REPL{
		reader: bufio.NewReader(os.Stdin),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}

	for {
		fmt.Print("formula> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "new":
		r.cmdNew(args)

	case "latex":
		r.cmdLatex()

	case "source":
		r.cmdSource()

	case "tree":
		r.cmdTree()

	case "mathml":
		r.cmdMathML()

	case "ranges":
		r.cmdRanges()

	case "insert":
		r.cmdInsert(args)

	case "delete":
		r.cmdDelete(args)

	case "caret":
		r.cmdCaret(args)

	case "select":
		r.cmdSelect(args)

	case "deselect":
		r.cmdDeselect()

	case "selection":
		r.cmdSelection()

	case "color":
		r.cmdColor(args)

	case "box":
		r.cmdBox(args)

	case "brace":
		r.cmdBrace(args)

	case "strike":
		r.cmdStrike()

	case "undo":
		r.cmdUndo()

	case "redo":
		r.cmdRedo()

	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

DOCUMENT:
  new <latex>             Create a new document from LaTeX source
  latex                   Print the canonical LaTeX for the current tree
  source                  Print the live source text (may be mid-edit)
  tree                    Print the node tree with ids
  mathml                  Print the MathML rendering
  ranges                  Print the styled source ranges

EDITING:
  caret <pos>             Place the caret at a source offset
  insert <pos> <text>     Insert text at a source offset
  delete <from> <to>      Delete the source span [from, to)

SELECTION AND STYLE:
  select <id> [id...]     Add node ids to the selection
  deselect                Clear the selection
  selection               Show the resolved selection
  color <name>            Color the selection
  box <border> <bg>       Box the selection
  brace over|under        Brace the selection
  strike                  Strike through the selection

HISTORY:
  undo                    Undo the last committed edit
  redo                    Redo an undone edit

OTHER:
  help                    Show this help message
  quit, exit              Exit the REPL
`
	fmt.Println(help)
}

func (r *REPL) cmdNew(args []string) {
	src := strings.Join(args, " ")
	if src == "" {
		fmt.Println("Usage: new <latex>")
		return
	}

	doc, err := formula.NewDocument(formula.DocumentOptions{Latex: src, Logger: r.logger})
	if err != nil {
		fmt.Printf("Error creating document: %v\n", err)
		return
	}
	r.doc = doc
	fmt.Printf("Created document: %s\n", doc.Latex())
}

func (r *REPL) cmdLatex() {
	if !r.ensureDoc() {
		return
	}
	fmt.Println(r.doc.Latex())
}

func (r *REPL) cmdSource() {
	if !r.ensureDoc() {
		return
	}
	fmt.Printf("%s\n", r.doc.Ranges().ToLatex())
	if !r.doc.SourceValid() {
		fmt.Println("(source does not currently parse; tree unchanged)")
	}
}

func (r *REPL) cmdTree() {
	if !r.ensureDoc() {
		return
	}
	for _, n := range r.doc.Formula().Body {
		printNode(n, 0)
	}
}

func printNode(n formula.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s %T %s\n", indent, n.ID(), n, n.Latex(formula.LatexNoID))
	for _, c := range n.Children() {
		printNode(c, depth+1)
	}
}

func (r *REPL) cmdMathML() {
	if !r.ensureDoc() {
		return
	}
	fmt.Println(r.doc.Formula().MathML())
}

func (r *REPL) cmdRanges() {
	if !r.ensureDoc() {
		return
	}
	printRanges(r.doc.Ranges().Ranges, 0)
}

func printRanges(rs []formula.RangeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, rn := range rs {
		switch v := rn.(type) {
		case *formula.UnstyledRange:
			fmt.Printf("%stext %q\n", indent, v.Text)
		case *formula.StyledRange:
			fmt.Printf("%sstyled %s %q .. %q\n", indent, v.ID, v.Left, v.Right)
			printRanges(v.Children, depth+1)
		}
	}
}

func (r *REPL) cmdCaret(args []string) {
	if !r.ensureDoc() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: caret <pos>")
		return
	}
	pos, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	r.doc.SetCaret(pos)
	fmt.Printf("Caret at %d\n", pos)
}

func (r *REPL) cmdInsert(args []string) {
	if !r.ensureDoc() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: insert <pos> <text>")
		return
	}
	pos, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	text := strings.Join(args[1:], " ")
	err = r.doc.ApplyTextEdit(formula.ContentChange{
		Op:       formula.ChangeInsert,
		From:     pos,
		Inserted: text,
	})
	if err != nil {
		fmt.Printf("Insert error: %v\n", err)
		return
	}
	r.cmdSource()
}

func (r *REPL) cmdDelete(args []string) {
	if !r.ensureDoc() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: delete <from> <to>")
		return
	}
	from, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	err = r.doc.ApplyTextEdit(formula.ContentChange{
		Op:   formula.ChangeDelete,
		From: from,
		To:   to,
	})
	if err != nil {
		fmt.Printf("Delete error: %v\n", err)
		return
	}
	r.cmdSource()
}

func (r *REPL) cmdSelect(args []string) {
	if !r.ensureDoc() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: select <id> [id...]")
		return
	}
	r.doc.Select(args...)
	r.cmdSelection()
}

func (r *REPL) cmdDeselect() {
	if !r.ensureDoc() {
		return
	}
	r.doc.ClearSelection()
	fmt.Println("Selection cleared")
}

func (r *REPL) cmdSelection() {
	if !r.ensureDoc() {
		return
	}
	resolved := r.doc.ResolvedSelection()
	if len(resolved) == 0 {
		fmt.Println("Nothing selected")
		return
	}
	fmt.Printf("Resolved: %s\n", strings.Join(resolved, ", "))
	for _, group := range r.doc.SelectionGroups() {
		fmt.Printf("  run: %s\n", strings.Join(group, " "))
	}
}

func (r *REPL) cmdColor(args []string) {
	if !r.ensureDoc() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: color <name>")
		return
	}
	if err := r.doc.ApplyColor(args[0]); err != nil {
		fmt.Printf("Color error: %v\n", err)
		return
	}
	r.cmdLatex()
}

func (r *REPL) cmdBox(args []string) {
	if !r.ensureDoc() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: box <border> <bg>")
		return
	}
	if err := r.doc.ApplyBox(args[0], args[1]); err != nil {
		fmt.Printf("Box error: %v\n", err)
		return
	}
	r.cmdLatex()
}

func (r *REPL) cmdBrace(args []string) {
	if !r.ensureDoc() {
		return
	}
	over := true
	if len(args) >= 1 && strings.ToLower(args[0]) == "under" {
		over = false
	}
	if err := r.doc.ApplyBrace(over); err != nil {
		fmt.Printf("Brace error: %v\n", err)
		return
	}
	r.cmdLatex()
}

func (r *REPL) cmdStrike() {
	if !r.ensureDoc() {
		return
	}
	if err := r.doc.ApplyStrikethrough(); err != nil {
		fmt.Printf("Strike error: %v\n", err)
		return
	}
	r.cmdLatex()
}

func (r *REPL) cmdUndo() {
	if !r.ensureDoc() {
		return
	}
	if err := r.doc.Undo(); err != nil {
		fmt.Printf("Undo error: %v\n", err)
		return
	}
	r.cmdLatex()
}

func (r *REPL) cmdRedo() {
	if !r.ensureDoc() {
		return
	}
	if err := r.doc.Redo(); err != nil {
		fmt.Printf("Redo error: %v\n", err)
		return
	}
	r.cmdLatex()
}

func (r *REPL) ensureDoc() bool {
	if r.doc == nil {
		fmt.Println("No document is open. Use 'new <latex>' to create one.")
		return false
	}
	return true
}
