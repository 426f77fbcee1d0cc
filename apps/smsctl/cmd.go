package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/auth"
	"github.com/micky-code/school-management-system-SMS--sub000/core/grade"
	"github.com/micky-code/school-management-system-SMS--sub000/core/resource"
	"github.com/micky-code/school-management-system-SMS--sub000/core/school"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	app     *school.App
	out     io.Writer
	metrics prometheus.Gatherer // optional
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage: smsctl [-metrics] COMMAND [OPTIONS]")
	fmt.Fprintln(cli.out, "  login -username USERNAME            - log in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                              - forget the stored session")
	fmt.Fprintln(cli.out, "  whoami                              - show the current profile")
	fmt.Fprintln(cli.out, "  list -resource NAME [-page N -limit N -search TEXT]")
	fmt.Fprintln(cli.out, "  get -resource NAME -id ID")
	fmt.Fprintln(cli.out, "  delete -resource NAME -id ID")
	fmt.Fprintln(cli.out, "  stats                               - dashboard figures")
	fmt.Fprintln(cli.out, "  grade -marks N -max N               - grade letter of a score")
	fmt.Fprintln(cli.out, "  receipt -id ID                      - receipt number of a payment")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	showMetrics := false
	if args[1] == "-metrics" {
		showMetrics = true
		args = append(args[:1:1], args[2:]...)
		if len(args) < 2 {
			cli.printUsage()
			return errHelp
		}
	}

	err := cli.dispatch(ctx, args[1], args[2:])
	if showMetrics && cli.metrics != nil && !errors.Is(err, errHelp) {
		if mErr := printMetrics(cli.out, cli.metrics); mErr != nil && err == nil {
			err = mErr
		}
	}
	return err
}

func (cli *commandLine) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		fs := cli.newFlagSet("login")
		uname := fs.String("username", "", "The user's username or email. The password will be prompted next.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if *uname == "" {
			fs.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			fs.Usage()
			return errHelp
		}
		return cli.login(ctx, *uname, string(pwd))

	case "logout":
		if err := cli.app.Auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "logged out")
		return nil

	case "whoami":
		return cli.whoami(ctx)

	case "list":
		fs := cli.newFlagSet("list")
		name := fs.String("resource", "", "The resource to list, eg. students.")
		page := fs.Int("page", 1, "The page number.")
		limit := fs.Int("limit", 0, "The page size (default: configured page size).")
		search := fs.String("search", "", "Free text filter.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		svc, err := cli.resource(fs, *name)
		if err != nil {
			return err
		}
		res, err := svc.GetAll(ctx, resource.Query{Page: *page, Limit: *limit, Search: *search})
		if err != nil {
			return err
		}
		if res.Mock {
			fmt.Fprintln(cli.out, "(offline: showing sample data)")
		}
		fmt.Fprintf(cli.out, "%d %s\n", res.Count, svc.Name())
		return cli.print(res.Rows)

	case "get", "delete":
		fs := cli.newFlagSet(cmd)
		name := fs.String("resource", "", "The resource, eg. students.")
		id := fs.String("id", "", "The record id.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		svc, err := cli.resource(fs, *name)
		if err != nil {
			return err
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		if cmd == "delete" {
			if err := svc.Delete(ctx, *id); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "deleted %s %s\n", svc.Name(), *id)
			return nil
		}
		res, err := svc.GetByID(ctx, *id)
		if err != nil {
			return err
		}
		rec, _ := res.First()
		return cli.print(rec)

	case "stats":
		s, err := cli.app.Dashboard.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "source: %s\n", s.Source)
		if len(s.Estimated) > 0 {
			fmt.Fprintf(cli.out, "estimated: %s\n", strings.Join(s.Estimated, ", "))
		}
		return cli.print(s)

	case "grade":
		fs := cli.newFlagSet("grade")
		marks := fs.Float64("marks", 0, "The marks obtained.")
		maxMarks := fs.Float64("max", 100, "The maximum marks.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		pct, ok := grade.Percentage(*marks, *maxMarks)
		if !ok {
			fmt.Fprintln(cli.out, "no grade")
			return nil
		}
		fmt.Fprintf(cli.out, "%s (%s%%)\n", grade.CalculateLetter(*marks, *maxMarks), strconv.FormatFloat(pct, 'f', 1, 64))
		return nil

	case "receipt":
		fs := cli.newFlagSet("receipt")
		id := fs.String("id", "", "The payment id.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		number, _, err := cli.app.Payments.Receipt(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, number)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, uname, pwd string) error {
	usr, err := cli.app.Auth.Login(ctx, auth.Credentials{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "logged in as %s\n", usr.String("username", "email"))
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	if !cli.app.Session.IsAuthenticated() {
		return auth.ErrNoToken
	}
	usr, mock, err := cli.app.Auth.Profile(ctx)
	if err != nil {
		return err
	}
	suffix := ""
	if mock {
		suffix = " (cached)"
	}
	fmt.Fprintf(cli.out, "%s [%s]%s\n", usr.String("username", "email"), usr.String("role"), suffix)
	return nil
}

func (cli *commandLine) resource(fs *flag.FlagSet, name string) (*resource.Service, error) {
	name = core.CleanString(name, true /* lower */)
	if name == "" {
		fs.Usage()
		return nil, errHelp
	}
	svc, ok := cli.app.Resource(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", name)
	}
	return svc, nil
}

func (cli *commandLine) print(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printMetrics writes one line per counter or histogram series of g.
func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+strconv.Quote(lp.GetValue()))
			}
			series := mf.GetName() + "{" + strings.Join(labels, ",") + "}"
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", series, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%gs", series, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}
