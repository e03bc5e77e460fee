package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/locvowork/mywork_tools/internal/bootstrap"
	"github.com/locvowork/mywork_tools/internal/credential"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
	"github.com/locvowork/mywork_tools/internal/mail"
	"github.com/locvowork/mywork_tools/internal/service"
)

const dateLayout = "2006-01-02"

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, "date", fmt.Errorf("%q is not YYYY-MM-DD", s))
	}
	return &t, nil
}

func dateRange(cmd *cli.Command) (domain.DateRange, error) {
	start, err := parseDay(cmd.String("start"))
	if err != nil {
		return domain.DateRange{}, err
	}
	end, err := parseDay(cmd.String("end"))
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{Start: start, End: end}, nil
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Usage: "First day, YYYY-MM-DD"},
		&cli.StringFlag{Name: "end", Usage: "Last day, YYYY-MM-DD"},
	}
}

func argument(cmd *cli.Command, name string) (string, error) {
	v := cmd.Args().First()
	if v == "" {
		return "", domain.Wrap(domain.ErrInvalidValue, cmd.Name, fmt.Errorf("%s is required", name))
	}
	return v, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ==================== TRANSFER ====================

func transferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Copy timecard entries into the monthly attendance sheet",
		ArgsUsage: "OUTPUT_FILE",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Full name, family and given name separated by a space", Required: true},
			&cli.StringFlag{Name: "source", Usage: "\"google\" or a path to a timecard workbook", Required: true},
			&cli.StringFlag{Name: "template", Usage: "Template workbook, defaults to OUTPUT_FILE"},
			&cli.IntFlag{Name: "month", Usage: "Month 1-12, defaults to the current month"},
			&cli.BoolFlag{Name: "watch", Usage: "Transfer again whenever the source file changes"},
		}, rangeFlags()...),
		Action: appAction(runTransfer),
	}
}

func runTransfer(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
	output, err := argument(cmd, "OUTPUT_FILE")
	if err != nil {
		return err
	}
	rng, err := dateRange(cmd)
	if err != nil {
		return err
	}
	svc, err := app.TransferService()
	if err != nil {
		return err
	}

	req := service.TransferRequest{
		Source:   cmd.String("source"),
		Output:   output,
		Template: cmd.String("template"),
		Name:     cmd.String("name"),
		Month:    int(cmd.Int("month")),
		Range:    rng,
	}
	n, err := svc.Transfer(ctx, req)
	if err != nil {
		return err
	}
	logger.InfoLog(ctx, "transferred %d entries to %s", n, output)

	if !cmd.Bool("watch") {
		return nil
	}
	err = svc.Watch(ctx, req, service.DefaultDebounce, func(n int, err error) {
		if err != nil {
			logger.ErrorLog(ctx, "error: %v", err)
			return
		}
		logger.InfoLog(ctx, "transferred %d entries to %s", n, output)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ==================== PAID LEAVE ====================

func paidLeaveCommand() *cli.Command {
	return &cli.Command{
		Name:  "paid-leave",
		Usage: "Read and record paid-leave applications",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List applications in the management sheet",
				ArgsUsage: "FILE",
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					path, err := argument(cmd, "FILE")
					if err != nil {
						return err
					}
					svc, err := app.PaidLeaveService()
					if err != nil {
						return err
					}
					entries, err := svc.List(ctx, path)
					if err != nil {
						return err
					}
					for _, e := range entries {
						fmt.Printf("%s\t%s\tstamped=%t\tapproved=%t\n",
							e.ApplicationDate.Format(dateLayout), e.LeaveType, e.StampExists, e.StampApproved)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Record an application and stamp it",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD", Required: true},
					&cli.StringFlag{Name: "type", Usage: "全日休, 午前休 or 午後休", Value: string(domain.LeaveFullDay)},
				},
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					path, err := argument(cmd, "FILE")
					if err != nil {
						return err
					}
					date, err := parseDay(cmd.String("date"))
					if err != nil {
						return err
					}
					svc, err := app.PaidLeaveService()
					if err != nil {
						return err
					}
					row, err := svc.Add(ctx, path, cmd.String("name"), *date, cmd.String("type"))
					if err != nil {
						return err
					}
					fmt.Printf("row %d\n", row)
					return nil
				}),
			},
		},
	}
}

// ==================== MAIL ====================

func queryFlags() []cli.Flag {
	return append(rangeFlags(),
		&cli.StringFlag{Name: "after-id", Usage: "Stop at the first message not newer than this id"},
		&cli.StringFlag{Name: "keyword", Usage: "Keep messages whose subject or body contains it"},
		&cli.StringFlag{Name: "overrun", Usage: "Messages after --end: skip or stop", Value: "skip"},
	)
}

func mailQuery(cmd *cli.Command, folder domain.Folder) (mail.Query, error) {
	rng, err := dateRange(cmd)
	if err != nil {
		return mail.Query{}, err
	}
	overrun, err := mail.ParseOverrun(cmd.String("overrun"))
	if err != nil {
		return mail.Query{}, err
	}
	return mail.Query{
		Folder:  folder,
		Range:   rng,
		AfterID: cmd.String("after-id"),
		Keyword: cmd.String("keyword"),
		Overrun: overrun,
	}, nil
}

func printMessages(msgs []domain.MailMessage) {
	for _, m := range msgs {
		fmt.Printf("%s\t%s\t%s <%s>\t%s\n", m.ID, m.ReceivedAt.Format("2006-01-02 15:04"), m.Sender.Name, m.Sender.Email, m.Subject)
	}
}

func printSummary(s mail.Summary) {
	fmt.Printf("saved %d, skipped %d", s.Saved, s.Skipped)
	if s.StoppedAt != "" {
		fmt.Printf(", stopped at %s", s.StoppedAt)
	}
	fmt.Println()
}

func mailCommand() *cli.Command {
	return &cli.Command{
		Name:  "mail",
		Usage: "Search, save and send webmail",
		Commands: []*cli.Command{
			{
				Name:  "receive",
				Usage: "List inbox messages",
				Flags: queryFlags(),
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					q, err := mailQuery(cmd, domain.FolderInbox)
					if err != nil {
						return err
					}
					client, err := app.MailClient(ctx, false)
					if err != nil {
						return err
					}
					msgs, err := client.ReceiveMessages(ctx, q)
					if err != nil {
						return err
					}
					printMessages(msgs)
					return nil
				}),
			},
			{
				Name:  "save-received",
				Usage: "Save new inbox messages to the document store",
				Flags: queryFlags(),
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					q, err := mailQuery(cmd, domain.FolderInbox)
					if err != nil {
						return err
					}
					client, err := app.MailClient(ctx, true)
					if err != nil {
						return err
					}
					sum, err := client.SaveReceived(ctx, q)
					if err != nil {
						return err
					}
					printSummary(sum)
					return nil
				}),
			},
			{
				Name:  "save-sent",
				Usage: "Save sent messages to the document store",
				Flags: queryFlags(),
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					q, err := mailQuery(cmd, domain.FolderSent)
					if err != nil {
						return err
					}
					client, err := app.MailClient(ctx, true)
					if err != nil {
						return err
					}
					sum, err := client.SaveSent(ctx, q)
					if err != nil {
						return err
					}
					printSummary(sum)
					return nil
				}),
			},
			{
				Name:  "send",
				Usage: "Compose and send a message",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "to", Required: true},
					&cli.StringSliceFlag{Name: "cc"},
					&cli.StringFlag{Name: "subject"},
					&cli.StringFlag{Name: "body"},
					&cli.StringFlag{Name: "attachment", Usage: "Path of a file to attach"},
				},
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					client, err := app.MailClient(ctx, false)
					if err != nil {
						return err
					}
					return client.Send(ctx, mail.Draft{
						To:         cmd.StringSlice("to"),
						Cc:         cmd.StringSlice("cc"),
						Subject:    cmd.String("subject"),
						Body:       cmd.String("body"),
						Attachment: cmd.String("attachment"),
					})
				}),
			},
			{
				Name:      "show",
				Usage:     "Print a saved message",
				ArgsUsage: "ID",
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					id, err := argument(cmd, "ID")
					if err != nil {
						return err
					}
					repo, err := app.Repository(ctx)
					if err != nil {
						return err
					}
					m, err := repo.FindByID(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(m)
				}),
			},
			{
				Name:      "find",
				Usage:     "Full-text search over indexed messages",
				ArgsUsage: "KEYWORD",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					kw, err := argument(cmd, "KEYWORD")
					if err != nil {
						return err
					}
					idx, err := app.Index()
					if err != nil {
						return err
					}
					if idx == nil {
						return domain.Wrap(domain.ErrUnsupported, "find", errors.New("elastic.url is not configured"))
					}
					msgs, err := idx.Search(ctx, kw, int(cmd.Int("limit")))
					if err != nil {
						return err
					}
					printMessages(msgs)
					return nil
				}),
			},
			{
				Name:  "watch",
				Usage: "Print messages as they are saved",
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					events, err := app.WatchMessages(ctx)
					if err != nil {
						return err
					}
					for ev := range events {
						fmt.Printf("%s\t%s\n", ev.Action, ev.ID)
					}
					return nil
				}),
			},
		},
	}
}

// ==================== CREDENTIAL ====================

func credentialCommand() *cli.Command {
	return &cli.Command{
		Name:  "credential",
		Usage: "Manage passwords in the OS keyring",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a password read from stdin",
				ArgsUsage: "webmail|docstore USER",
				Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
					kind, user := cmd.Args().Get(0), cmd.Args().Get(1)
					if kind != credential.WebmailKind && kind != credential.DocStoreKind {
						return domain.Wrap(domain.ErrInvalidValue, "credential set", fmt.Errorf("unknown kind %q", kind))
					}
					if user == "" {
						return domain.Wrap(domain.ErrInvalidValue, "credential set", errors.New("USER is required"))
					}

					fmt.Fprint(os.Stderr, "password: ")
					line, err := bufio.NewReader(os.Stdin).ReadString('\n')
					if err != nil && line == "" {
						return fmt.Errorf("reading password: %w", err)
					}
					password := strings.TrimRight(line, "\r\n")
					if password == "" {
						return domain.Wrap(domain.ErrInvalidValue, "credential set", errors.New("empty password"))
					}

					store, err := app.Credentials()
					if err != nil {
						return err
					}
					if err := store.Set(kind, user, password); err != nil {
						return err
					}
					logger.InfoLog(ctx, "stored %s", credential.Key(kind, user))
					return nil
				}),
			},
		},
	}
}

// ==================== SERVE ====================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read API over saved messages",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Overrides http.port"},
		},
		Action: appAction(func(ctx context.Context, cmd *cli.Command, app *bootstrap.App) error {
			return app.Serve(ctx, int(cmd.Int("port")))
		}),
	}
}
