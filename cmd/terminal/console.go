package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spec-kit/hospitality-auth/internal/api/dto"
	"github.com/spec-kit/hospitality-auth/internal/domain"
	"github.com/spec-kit/hospitality-auth/internal/session"
)

const helpText = `commands:
  login [email]     sign in
  logout            sign out
  whoami            show the signed-in user
  register          submit a new establishment for approval
  add-employee      add a staff account (managers only)
  staff [role]      list staff of your establishment
  help              show this help
  quit              exit`

var errQuit = errors.New("quit")

// terminalSession is the part of session.Manager the console drives.
type terminalSession interface {
	Login(ctx context.Context, email, password string) session.Result
	Logout()
	Register(ctx context.Context, req dto.RegisterRequest) session.RegisterResult
	RegisterEmployee(ctx context.Context, req session.EmployeeRequest) session.Result
	RecordActivity(a session.Activity) bool
	User() *domain.Profile
	Token() string
	Authenticated() bool
}

type staffLister interface {
	ListEmployees(ctx context.Context, token string, role domain.Role) ([]domain.Profile, error)
}

// console is the line-oriented POS front end. Every line read counts as a key press.
type console struct {
	session terminalSession
	staff   staffLister
	lines   <-chan string

	outMu sync.Mutex
	out   io.Writer
}

// readLines feeds r into a channel that is closed at EOF.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

func (c *console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// RedirectToLogin is invoked by the session manager when a session ends.
func (c *console) RedirectToLogin() {
	c.printf("\nsession ended. type 'login' to sign in again.\n")
}

// Run reads commands until EOF, quit or ctx is cancelled.
func (c *console) Run(ctx context.Context) error {
	c.greet()
	for {
		c.printf("%s> ", c.promptName())
		line, err := c.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := c.dispatch(ctx, strings.Fields(line)); err != nil {
			if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (c *console) greet() {
	if u := c.session.User(); u != nil {
		c.printf("welcome back, %s (%s)\n", displayName(u), u.Role)
		return
	}
	c.printf("not signed in. type 'login' to sign in or 'help' for commands.\n")
}

func (c *console) promptName() string {
	if u := c.session.User(); u != nil {
		return u.Email
	}
	return "pos"
}

func (c *console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		c.session.RecordActivity(session.ActivityKeyPress)
		return strings.TrimSpace(line), nil
	}
}

func (c *console) ask(ctx context.Context, label string) (string, error) {
	c.printf("%s: ", label)
	return c.readLine(ctx)
}

func (c *console) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "help", "?":
		c.printf("%s\n", helpText)
	case "login":
		return c.login(ctx, args[1:])
	case "logout":
		if !c.session.Authenticated() {
			c.printf("not signed in\n")
			return nil
		}
		c.session.Logout()
	case "whoami":
		c.whoami()
	case "register":
		return c.register(ctx)
	case "add-employee":
		return c.addEmployee(ctx)
	case "staff":
		return c.listStaff(ctx, args[1:])
	case "quit", "exit":
		return errQuit
	default:
		c.printf("unknown command %q, type 'help'\n", args[0])
	}
	return nil
}

func (c *console) login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = c.ask(ctx, "email"); err != nil {
			return err
		}
	}
	password, err := c.ask(ctx, "password")
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		c.printf("email and password are required\n")
		return nil
	}

	res := c.session.Login(ctx, email, password)
	if !res.Success {
		c.printf("login failed: %s\n", res.Error)
		return nil
	}
	u := c.session.User()
	if u == nil {
		// Ended before we could greet; RedirectToLogin already told the operator.
		return nil
	}
	c.printf("signed in as %s (%s)\n", displayName(u), u.Role)
	return nil
}

func (c *console) whoami() {
	u := c.session.User()
	if u == nil {
		c.printf("not signed in\n")
		return
	}
	c.printf("id:            %s\nname:          %s\nemail:         %s\nrole:          %s\n", u.ID, u.Name, u.Email, u.Role)
	if !u.HasEstablishment() {
		return
	}
	c.printf("establishment: %s\n", u.EstablishmentID)
	if u.EstablishmentType != "" {
		c.printf("type:          %s (%s plan)\n", u.EstablishmentType, u.SubscriptionTier)
	}
}

type prompt struct {
	label string
	dst   *string
}

func (c *console) askAll(ctx context.Context, prompts []prompt) error {
	for _, p := range prompts {
		v, err := c.ask(ctx, p.label)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	return nil
}

func (c *console) register(ctx context.Context) error {
	var req dto.RegisterRequest
	var estType string
	err := c.askAll(ctx, []prompt{
		{"establishment type (hotel/restaurant)", &estType},
		{"establishment name", &req.EstablishmentName},
		{"establishment address", &req.EstablishmentAddress},
		{"establishment phone", &req.EstablishmentPhone},
		{"TIN number", &req.TINNumber},
		{"your name", &req.Name},
		{"email", &req.Email},
		{"password", &req.Password},
	})
	if err != nil {
		return err
	}
	req.EstablishmentType = domain.EstablishmentType(strings.ToLower(estType))

	res := c.session.Register(ctx, req)
	if !res.Success {
		c.printf("registration failed: %s\n", res.Error)
		return nil
	}
	c.printf("%s\n", res.Message)
	return nil
}

func (c *console) addEmployee(ctx context.Context) error {
	var req session.EmployeeRequest
	var role string
	err := c.askAll(ctx, []prompt{
		{"name", &req.Name},
		{"email", &req.Email},
		{"password", &req.Password},
		{"role (manager/waiter/accountant/hr/receptionist/chef)", &role},
	})
	if err != nil {
		return err
	}
	req.Role = domain.Role(strings.ToLower(role))

	res := c.session.RegisterEmployee(ctx, req)
	if !res.Success {
		c.printf("could not add employee: %s\n", res.Error)
		return nil
	}
	c.printf("employee %s added as %s\n", req.Email, req.Role)
	return nil
}

func (c *console) listStaff(ctx context.Context, args []string) error {
	if !c.session.Authenticated() {
		c.printf("not signed in\n")
		return nil
	}
	var role domain.Role
	if len(args) > 0 {
		role = domain.Role(strings.ToLower(args[0]))
	}
	staff, err := c.staff.ListEmployees(ctx, c.session.Token(), role)
	if err != nil {
		c.printf("could not list staff: %v\n", err)
		return nil
	}
	if len(staff) == 0 {
		c.printf("no staff found\n")
		return nil
	}
	for _, p := range staff {
		c.printf("%-14s %-28s %s\n", p.Role, p.Email, p.Name)
	}
	return nil
}

func displayName(u *domain.Profile) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
