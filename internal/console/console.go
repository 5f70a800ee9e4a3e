// Package console はメモリ上でタスクを管理する対話型コンソールを提供する。
//
// タスクはプロセス内にのみ保持され、終了すると失われる。
// 操作はWeb APIと同じtask.Serviceを通して行い、単一のローカルユーザーが所有する。
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/security"
	"github.com/hitoshi/todoman/internal/task"
	"github.com/hitoshi/todoman/internal/validation"
)

// localOwner はコンソールで作成されるタスクの所有者。
const localOwner = "local"

// Console は対話型のタスク管理コンソール。
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	tasks *task.Service
}

// New はメモリ上のリポジトリを使うConsoleを生成する。
// タスクIDは1から始まる連番で採番する。
func New(in io.Reader, out io.Writer) *Console {
	next := 0
	svc := task.NewService(
		repository.NewMemoryTaskRepo(),
		validation.New(security.NewMarkupDetector()),
		task.WithIDGenerator(func() string {
			next++
			return strconv.Itoa(next)
		}),
	)
	return &Console{
		in:    bufio.NewScanner(in),
		out:   out,
		tasks: svc,
	}
}

// Run はexitが入力されるか入力が終わるまでコマンドを処理する。
func (c *Console) Run(ctx context.Context) error {
	c.printf("Todo Console\n")
	c.printMenu()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, ok := c.prompt("> ")
		if !ok {
			c.printf("\nGoodbye!\n")
			return c.in.Err()
		}

		switch strings.ToLower(line) {
		case "1", "add":
			c.add(ctx)
		case "2", "list":
			c.list(ctx)
		case "3", "update":
			c.update(ctx)
		case "4", "delete":
			c.delete(ctx)
		case "5", "toggle":
			c.toggle(ctx)
		case "6", "exit", "quit":
			c.printf("Goodbye!\n")
			return nil
		case "", "help":
			c.printMenu()
		default:
			c.printf("Unknown command: %s\n", line)
			c.printMenu()
		}
	}
}

func (c *Console) add(ctx context.Context) {
	title, ok := c.prompt("Title: ")
	if !ok {
		return
	}
	description, ok := c.prompt("Description (optional): ")
	if !ok {
		return
	}

	t, err := c.tasks.Create(ctx, localOwner, model.TaskDraft{Title: title, Description: description})
	if err != nil {
		c.printError(err)
		return
	}
	c.printf("Task added: %s\n", formatTask(t))
}

func (c *Console) list(ctx context.Context) {
	tasks, err := c.tasks.List(ctx, localOwner)
	if err != nil {
		c.printError(err)
		return
	}
	if len(tasks) == 0 {
		c.printf("No tasks yet.\n")
		return
	}
	for _, t := range tasks {
		c.printf("%s\n", formatTask(t))
	}
}

// update は空欄の入力を「変更しない」として扱う。
func (c *Console) update(ctx context.Context) {
	id, ok := c.promptID()
	if !ok {
		return
	}
	if _, err := c.tasks.Get(ctx, localOwner, id); err != nil {
		c.printError(err)
		return
	}

	var patch model.TaskPatch
	title, ok := c.prompt("New title (blank to keep): ")
	if !ok {
		return
	}
	if strings.TrimSpace(title) != "" {
		patch.Title = &title
	}
	description, ok := c.prompt("New description (blank to keep): ")
	if !ok {
		return
	}
	if strings.TrimSpace(description) != "" {
		patch.Description = &description
	}

	t, err := c.tasks.Update(ctx, localOwner, id, patch)
	if err != nil {
		c.printError(err)
		return
	}
	c.printf("Task updated: %s\n", formatTask(t))
}

func (c *Console) delete(ctx context.Context) {
	id, ok := c.promptID()
	if !ok {
		return
	}
	if err := c.tasks.Delete(ctx, localOwner, id); err != nil {
		c.printError(err)
		return
	}
	c.printf("Task %s deleted.\n", id)
}

func (c *Console) toggle(ctx context.Context) {
	id, ok := c.promptID()
	if !ok {
		return
	}
	t, err := c.tasks.Toggle(ctx, localOwner, id)
	if err != nil {
		c.printError(err)
		return
	}
	c.printf("Task %s marked as %s.\n", t.ID, statusLabel(t.Status))
}

// promptID はタスクIDを読み取る。正の整数以外はエラーを表示してfalseを返す。
func (c *Console) promptID() (string, bool) {
	raw, ok := c.prompt("Task ID: ")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.printf("Error: invalid task ID %q\n", raw)
		return "", false
	}
	return strconv.Itoa(n), true
}

// prompt は1行読み取り前後の空白を除いて返す。入力が終わった場合はfalseを返す。
func (c *Console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) printMenu() {
	c.printf("Commands: 1) add  2) list  3) update  4) delete  5) toggle  6) exit\n")
}

func (c *Console) printError(err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		c.printf("Error: %v\n", err)
		return
	}
	switch apiErr.Code {
	case model.ErrCodeTaskNotFound, model.ErrCodeTaskForbidden:
		c.printf("Error: task not found\n")
	case model.ErrCodeValidationFailed:
		for _, d := range apiErr.Details {
			c.printf("Error: %s\n", d)
		}
	default:
		c.printf("Error: %s\n", apiErr.Message)
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func formatTask(t *model.Task) string {
	return fmt.Sprintf("ID: %s | Title: %s | Description: %s | Status: %s",
		t.ID, t.Title, t.Description, statusLabel(t.Status))
}

func statusLabel(s model.TaskStatus) string {
	if s == model.TaskStatusCompleted {
		return "Completed"
	}
	return "Pending"
}
