package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/gate"
	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/settings"
	"github.com/kidandcat/bugracer/internal/stats"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"}
}

// action opens the runtime, enters route and hands the signed-in user to fn.
func action(route string, fn func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		rt, err := setup(c)
		if err != nil {
			return err
		}
		defer rt.Close()
		u, err := rt.enter(ctx, route)
		if err != nil {
			return err
		}
		return fn(rt.ctx(ctx), c, rt, u)
	}
}

// requireCap rejects u unless it holds want.
func requireCap(op string, u *model.User, want gate.Capability) error {
	if gate.Can(u, want) {
		return nil
	}
	return apperr.Newf(apperr.Unauthorized, op, "the %s role cannot do this", u.Role)
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and remember the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, Usage: "email or username"},
			&cli.StringFlag{Name: "password", Required: true},
			jsonFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setup(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			u, err := rt.sess.Login(ctx, c.String("email"), c.String("password"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(u)
			}
			_, _ = fmt.Fprintf(out, "signed in as %s (%s)\n", u.Name, u.Role.Title())
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setup(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.sess.CheckSession(ctx)
			rt.sess.Logout(ctx)
			_, _ = fmt.Fprintln(out, "signed out")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Flags: []cli.Flag{jsonFlag()},
		Action: action("/profile", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
			if c.Bool("json") {
				return printJSON(u)
			}
			printUser(*u)
			return nil
		}),
	}
}

func bugsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bugs",
		Usage: "List and change bugs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the bugs visible to you",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project"},
					&cli.StringFlag{Name: "status"},
					&cli.StringFlag{Name: "priority"},
					&cli.StringFlag{Name: "search"},
					&cli.BoolFlag{Name: "mine", Usage: "only bugs assigned to you"},
					jsonFlag(),
				},
				Action: action("/bugs", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					f := model.Filter{ProjectID: c.String("project"), Search: c.String("search")}
					if s := c.String("status"); s != "" {
						st, err := model.ParseStatus(s)
						if err != nil {
							return err
						}
						f.Status = st
					}
					if s := c.String("priority"); s != "" {
						p, err := model.ParsePriority(s)
						if err != nil {
							return err
						}
						f.Priority = p
					}
					t, err := rt.tracker(ctx)
					if err != nil {
						return err
					}
					bugs := t.Visible(f)
					if c.Bool("mine") {
						mine := bugs[:0]
						for _, b := range bugs {
							if b.AssigneeID == u.ID {
								mine = append(mine, b)
							}
						}
						bugs = mine
					}
					if c.Bool("json") {
						return printJSON(bugs)
					}
					printBugs(bugs)
					return nil
				}),
			},
			{
				Name:      "show",
				Usage:     "Show one bug",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: action("/bugs/:id", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					id, err := arg(c, "bugs.show")
					if err != nil {
						return err
					}
					b, err := rt.src.Bugs().Get(ctx, id)
					if err != nil {
						return err
					}
					if !gate.Visible(u, *b) {
						return apperr.New(apperr.NotFound, "bugs.show", "Bug not found")
					}
					if c.Bool("json") {
						return printJSON(b)
					}
					printBug(*b)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Report a bug",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "project", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "priority", Value: string(model.PriorityMedium)},
					&cli.StringSliceFlag{Name: "dashboard", Usage: "affected dashboard id, repeatable"},
					&cli.StringFlag{Name: "assignee"},
					jsonFlag(),
				},
				Action: action("/bugs/new", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					p, err := model.ParsePriority(c.String("priority"))
					if err != nil {
						return err
					}
					t, err := rt.tracker(ctx)
					if err != nil {
						return err
					}
					b, err := t.AddBug(ctx, model.BugInput{
						Name:               c.String("name"),
						Description:        c.String("description"),
						ProjectID:          c.String("project"),
						AffectedDashboards: c.StringSlice("dashboard"),
						AssigneeID:         c.String("assignee"),
						Priority:           p,
					})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(b)
					}
					printBug(*b)
					return nil
				}),
			},
			{
				Name:      "status",
				Usage:     "Move a bug to another status",
				ArgsUsage: "<id> <status>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: action("/bugs/:id", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					if c.Args().Len() != 2 {
						return apperr.New(apperr.Validation, "bugs.status", "usage: bugs status <id> <status>")
					}
					st, err := model.ParseStatus(c.Args().Get(1))
					if err != nil {
						return err
					}
					t, err := rt.tracker(ctx)
					if err != nil {
						return err
					}
					b, err := t.UpdateStatus(ctx, c.Args().First(), st)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(b)
					}
					printBug(*b)
					return nil
				}),
			},
			{
				Name:      "assign",
				Usage:     "Assign a bug to a user; an empty user unassigns it",
				ArgsUsage: "<id> [user-id]",
				Flags:     []cli.Flag{jsonFlag()},
				Action: action("/bugs/:id", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					id, err := arg(c, "bugs.assign")
					if err != nil {
						return err
					}
					t, err := rt.tracker(ctx)
					if err != nil {
						return err
					}
					b, err := t.Assign(ctx, id, c.Args().Get(1))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(b)
					}
					printBug(*b)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a bug",
				ArgsUsage: "<id>",
				Action: action("/bugs/:id", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					id, err := arg(c, "bugs.delete")
					if err != nil {
						return err
					}
					t, err := rt.tracker(ctx)
					if err != nil {
						return err
					}
					if err := t.DeleteBug(ctx, id); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(out, "deleted %s\n", id)
					return nil
				}),
			},
		},
	}
}

func projectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List and manage projects",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List projects",
				Flags: []cli.Flag{jsonFlag()},
				Action: action("/projects", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					projects, err := rt.src.Projects().List(ctx, model.Filter{})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(projects)
					}
					printProjects(projects)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a project",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringSliceFlag{Name: "dashboard", Usage: "dashboard name, repeatable"},
					jsonFlag(),
				},
				Action: action("/projects/new", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					p, err := rt.src.Projects().Create(ctx, model.ProjectInput{
						Name:        c.String("name"),
						Description: c.String("description"),
						Dashboards:  c.StringSlice("dashboard"),
					})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(p)
					}
					printProjects([]model.Project{*p})
					return nil
				}),
			},
			{
				Name:      "status",
				Usage:     "Mark a project active, completed or archived",
				ArgsUsage: "<id> <status>",
				Action: action("/projects/:id", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					if err := requireCap("projects.update", u, gate.ManageProjects); err != nil {
						return err
					}
					if c.Args().Len() != 2 {
						return apperr.New(apperr.Validation, "projects.status", "usage: projects status <id> <status>")
					}
					st, err := model.ParseProjectStatus(c.Args().Get(1))
					if err != nil {
						return err
					}
					p, err := rt.src.Projects().Update(ctx, c.Args().First(), model.ProjectPatch{Status: &st})
					if err != nil {
						return err
					}
					printProjects([]model.Project{*p})
					return nil
				}),
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: []cli.Flag{jsonFlag()},
				Action: action("/users", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					users, err := rt.src.Users().List(ctx, model.Filter{})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(users)
					}
					printUsers(users)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "username"},
					&cli.StringFlag{Name: "password"},
					&cli.StringFlag{Name: "role", Value: string(model.RoleTester)},
					jsonFlag(),
				},
				Action: action("/users", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					role, err := model.ParseRole(c.String("role"))
					if err != nil {
						return err
					}
					created, err := rt.src.Users().Create(ctx, model.UserInput{
						Name:     c.String("name"),
						Username: c.String("username"),
						Email:    c.String("email"),
						Password: c.String("password"),
						Role:     role,
					})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(created)
					}
					printUser(*created)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a user",
				ArgsUsage: "<id>",
				Action: action("/users", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					id, err := arg(c, "users.delete")
					if err != nil {
						return err
					}
					if id == u.ID {
						return apperr.New(apperr.Validation, "users.delete", "You cannot delete your own account")
					}
					if err := rt.src.Users().Delete(ctx, id); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(out, "deleted %s\n", id)
					return nil
				}),
			},
		},
	}
}

func activityCommand() *cli.Command {
	return &cli.Command{
		Name:  "activity",
		Usage: "Show recent activity",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "only activity by this user id"},
			&cli.StringFlag{Name: "project"},
			&cli.IntFlag{Name: "limit", Value: 20},
			jsonFlag(),
		},
		Action: action("/activity", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
			acts, err := rt.src.Activities().List(ctx, model.Filter{UserID: c.String("user"), ProjectID: c.String("project")})
			if err != nil {
				return err
			}
			if n := int(c.Int("limit")); n > 0 && len(acts) > n {
				acts = acts[:n]
			}
			if c.Bool("json") {
				return printJSON(acts)
			}
			printActivities(acts)
			return nil
		}),
	}
}

type report struct {
	Summary  stats.Summary        `json:"summary"`
	Projects []stats.ProjectStats `json:"projects"`
	Weekly   []stats.Day          `json:"weekly"`
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show dashboard figures for the bugs visible to you",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: 7, Usage: "length of the daily breakdown"},
			jsonFlag(),
		},
		Action: action("/reports", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
			t, err := rt.tracker(ctx)
			if err != nil {
				return err
			}
			acts, err := rt.src.Activities().List(ctx, model.Filter{})
			if err != nil {
				return err
			}
			bugs := t.Visible(model.Filter{})
			r := report{
				Summary:  stats.Summarize(bugs),
				Projects: stats.PerProject(bugs, t.Projects()),
				Weekly:   stats.Weekly(acts, time.Now(), int(c.Int("days"))),
			}
			if c.Bool("json") {
				return printJSON(r)
			}
			printSummary(r.Summary)
			_, _ = fmt.Fprintln(out)
			printProjectStats(r.Projects)
			_, _ = fmt.Fprintln(out)
			printWeekly(r.Weekly)
			return nil
		}),
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show and change notification settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show notification settings",
				Flags: []cli.Flag{jsonFlag()},
				Action: action("/settings", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					s, err := settings.Load(rt.kv, u.ID)
					if err != nil {
						return err
					}
					return printSettings(c, s)
				}),
			},
			{
				Name:      "set",
				Usage:     "Turn one notification setting on or off",
				ArgsUsage: "<name> <on|off>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: action("/settings", func(ctx context.Context, c *cli.Command, rt *runtime, u *model.User) error {
					if c.Args().Len() != 2 {
						return apperr.New(apperr.Validation, "settings.set", "usage: settings set <name> <on|off>")
					}
					on, err := parseSwitch(c.Args().Get(1))
					if err != nil {
						return err
					}
					s, err := settings.Set(rt.kv, u.ID, c.Args().First(), on)
					if err != nil {
						return err
					}
					return printSettings(c, s)
				}),
			},
		},
	}
}

func printSettings(c *cli.Command, s model.NotificationSettings) error {
	if c.Bool("json") {
		return printJSON(s)
	}
	b, err := toMap(s)
	if err != nil {
		return err
	}
	rows := make([][2]string, 0, len(b))
	for _, name := range settings.Names() {
		rows = append(rows, [2]string{name, onOff(b[name])})
	}
	printKV(rows)
	return nil
}

func toMap(s model.NotificationSettings) (map[string]bool, error) {
	m := map[string]bool{}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return m, json.Unmarshal(b, &m)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperr.Newf(apperr.Validation, "settings.set", "expected on or off, got %q", s)
	}
	return v, nil
}

func arg(c *cli.Command, op string) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", apperr.New(apperr.Validation, op, "an id is required")
	}
	return id, nil
}
