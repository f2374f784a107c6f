package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/yungbote/coursemarket/internal/app"
	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket/internal/state"
)

type runner struct {
	build func(context.Context) (*app.App, error)
	app   *app.App
	out   printer
}

// before builds the App and tags every request of this invocation with one request id.
func (r *runner) before(c *cli.Context) error {
	r.out = printer{w: c.App.Writer, format: c.String("output")}
	c.Context = ctxutil.WithTraceData(c.Context, &ctxutil.TraceData{RequestID: uuid.NewString()})
	a, err := r.build(c.Context)
	if err != nil {
		return err
	}
	r.app = a
	return nil
}

func (r *runner) after(c *cli.Context) error {
	if r.app != nil {
		r.app.Close(c.Context)
		r.app = nil
	}
	return nil
}

func (r *runner) store() *state.Store { return r.app.Store }

func newCLI(r *runner) *cli.App {
	return &cli.App{
		Name:    "coursectl",
		Usage:   "browse, buy and teach courses on the marketplace",
		Version: app.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "json", Usage: "json or yaml"},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			authCommands(r),
			courseCommands(r),
			curriculumCommand(r),
			enrollmentCommands(r),
			paymentCommands(r),
			progressCommands(r),
			reviewCommands(r),
			{
				Name:  "dashboard",
				Usage: "teacher dashboard",
				Action: authed(r, func(c *cli.Context) error {
					d := r.store().Dashboard
					if err := d.FetchTeacherDashboard(c.Context); err != nil {
						return err
					}
					return r.out.print(d.Snapshot().Dashboard)
				}),
			},
		},
	}
}

func argID(c *cli.Context, name string) (int64, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func authCommands(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "account and session",
		Subcommands: []*cli.Command{
			{
				Name: "register",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "full-name"},
					&cli.StringFlag{Name: "role", Value: string(domain.RoleStudent)},
				},
				Action: func(c *cli.Context) error {
					err := r.store().Auth.Register(c.Context, domain.RegisterInput{
						Username: c.String("username"),
						Email:    c.String("email"),
						FullName: c.String("full-name"),
						Role:     domain.Role(c.String("role")),
						Password: c.String("password"),
						Confirm:  c.String("password"),
					})
					if err != nil {
						return err
					}
					return r.out.print(map[string]any{"registered": true, "otp_sent": r.store().Auth.Snapshot().OTPSent})
				},
			},
			{
				Name:  "verify-otp",
				Flags: []cli.Flag{&cli.StringFlag{Name: "email", Required: true}, &cli.StringFlag{Name: "otp", Required: true}},
				Action: func(c *cli.Context) error {
					if err := r.store().Auth.VerifyOTP(c.Context, domain.OTPInput{Email: c.String("email"), OTP: c.String("otp")}); err != nil {
						return err
					}
					return r.out.print(map[string]bool{"verified": true})
				},
			},
			{
				Name:  "login",
				Flags: []cli.Flag{&cli.StringFlag{Name: "email", Required: true}, &cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"COURSEMARKET_PASSWORD"}}},
				Action: func(c *cli.Context) error {
					auth := r.store().Auth
					if err := auth.Login(c.Context, domain.LoginInput{Email: c.String("email"), Password: c.String("password")}); err != nil {
						return err
					}
					return r.out.print(auth.Snapshot().User)
				},
			},
			{
				Name:  "whoami",
				Usage: "verify the stored token and show the profile",
				Action: func(c *cli.Context) error {
					auth := r.store().Auth
					if err := auth.VerifyToken(c.Context); err != nil {
						return err
					}
					return r.out.print(auth.Snapshot().User)
				},
			},
			{
				Name: "logout",
				Action: func(c *cli.Context) error {
					return r.store().Logout(c.Context)
				},
			},
			{
				Name:  "reset-password",
				Usage: "request an OTP, or confirm with --otp and --new-password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "otp"},
					&cli.StringFlag{Name: "new-password"},
				},
				Action: func(c *cli.Context) error {
					auth := r.store().Auth
					if !c.IsSet("otp") {
						return auth.RequestPasswordReset(c.Context, c.String("email"))
					}
					return auth.ConfirmPasswordReset(c.Context, domain.PasswordResetConfirmInput{
						Email:       c.String("email"),
						OTP:         c.String("otp"),
						NewPassword: c.String("new-password"),
						Confirm:     c.String("new-password"),
					})
				},
			},
		},
	}
}

func courseCommands(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "courses",
		Usage: "catalog",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search"},
					&cli.Int64Flag{Name: "category"},
					&cli.StringFlag{Name: "level"},
					&cli.BoolFlag{Name: "featured"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: state.DefaultPageSize},
				},
				Action: func(c *cli.Context) error {
					q := domain.CourseQuery{
						Search:   c.String("search"),
						Category: c.Int64("category"),
						Level:    domain.Level(c.String("level")),
						Page:     c.Int("page"),
						Limit:    c.Int("limit"),
					}
					if c.IsSet("featured") {
						f := c.Bool("featured")
						q.IsFeatured = &f
					}
					cs := r.store().Courses
					if err := cs.FetchCourses(c.Context, q); err != nil {
						return err
					}
					snap := cs.Snapshot()
					return r.out.print(map[string]any{"results": snap.Courses, "pagination": snap.Pagination})
				},
			},
			{
				Name:      "show",
				ArgsUsage: "COURSE_ID",
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					cs := r.store().Courses
					if err := cs.FetchCourse(c.Context, id); err != nil {
						return err
					}
					return r.out.print(cs.Snapshot().Selected)
				},
			},
			{
				Name: "categories",
				Action: func(c *cli.Context) error {
					cs := r.store().Courses
					if err := cs.FetchCategories(c.Context); err != nil {
						return err
					}
					return r.out.print(cs.Snapshot().Categories)
				},
			},
			{
				Name:      "delete",
				ArgsUsage: "COURSE_ID",
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					return r.store().Courses.DeleteCourse(c.Context, id)
				},
			},
		},
	}
}

func curriculumCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "curriculum",
		Usage:     "sections with their lessons",
		ArgsUsage: "COURSE_ID",
		Action: func(c *cli.Context) error {
			id, err := argID(c, "course id")
			if err != nil {
				return err
			}
			s := r.store()
			if err := s.Curriculum.FetchSections(c.Context, id); err != nil {
				return err
			}
			if err := s.Curriculum.FetchLessons(c.Context, domain.LessonFilter{Course: id}); err != nil {
				return err
			}
			return r.out.print(s.Select.SectionsWithLessons(id))
		},
	}
}

func enrollmentCommands(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "enrollments",
		Usage: "your enrollments",
		Action: authed(r, func(c *cli.Context) error {
			es := r.store().Enrollments
			if err := es.FetchEnrollments(c.Context); err != nil {
				return err
			}
			return r.out.print(es.Snapshot().Enrollments)
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				ArgsUsage: "COURSE_ID",
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					es := r.store().Enrollments
					if err := es.CheckEnrollment(c.Context, id); err != nil {
						return err
					}
					return r.out.print(map[string]any{"course": id, "enrolled": es.IsEnrolled(id)})
				},
			},
		},
	}
}

func paymentCommands(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "pay",
		Usage: "checkout and payment history",
		Subcommands: []*cli.Command{
			{
				Name:      "details",
				ArgsUsage: "COURSE_ID",
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					ps := r.store().Payments
					if err := ps.FetchPaymentDetails(c.Context, id); err != nil {
						return err
					}
					snap := ps.Snapshot()
					return r.out.print(map[string]any{"details": snap.Details, "client_secret": snap.ClientSecret, "is_enrolled": snap.IsEnrolled})
				},
			},
			{
				Name:      "checkout",
				ArgsUsage: "COURSE_ID",
				Usage:     "confirm a payment intent and record the purchase",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "intent", Required: true},
					&cli.StringFlag{Name: "secret", Usage: "client secret; omit to skip processor verification"},
				},
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					ps := r.store().Payments
					if !c.IsSet("secret") {
						res, err := ps.ProcessPayment(c.Context, id, c.String("intent"))
						if err != nil {
							return err
						}
						return r.out.print(res)
					}
					res, err := ps.CompleteCheckout(c.Context, id, c.String("intent"), c.String("secret"))
					if err != nil {
						return err
					}
					return r.out.print(res)
				},
			},
			{
				Name:  "history",
				Flags: []cli.Flag{&cli.IntFlag{Name: "page", Value: 1}},
				Action: authed(r, func(c *cli.Context) error {
					s := r.store()
					if err := s.Payments.FetchPaymentHistory(c.Context, c.Int("page")); err != nil {
						return err
					}
					return r.out.print(s.Select.PaymentHistoryWindow())
				}),
			},
		},
	}
}

func progressCommands(r *runner) *cli.Command {
	mark := func(complete bool) cli.ActionFunc {
		return func(c *cli.Context) error {
			ps := r.store().Progress
			enr, lesson := c.Int64("enrollment"), c.Int64("lesson")
			var err error
			if complete {
				err = ps.MarkLessonCompleted(c.Context, enr, lesson)
			} else {
				err = ps.MarkLessonIncomplete(c.Context, enr, lesson)
			}
			if err != nil {
				return err
			}
			return r.out.print(ps.Snapshot().Enrollments)
		}
	}
	markFlags := []cli.Flag{
		&cli.Int64Flag{Name: "enrollment", Required: true},
		&cli.Int64Flag{Name: "lesson", Required: true},
	}
	return &cli.Command{
		Name:      "progress",
		Usage:     "course progress and lesson completion",
		ArgsUsage: "COURSE_ID",
		Action: func(c *cli.Context) error {
			id, err := argID(c, "course id")
			if err != nil {
				return err
			}
			ps := r.store().Progress
			if err := ps.FetchCourseProgress(c.Context, id); err != nil {
				return err
			}
			out := map[string]any{"progress": ps.Snapshot().Progress}
			if next, ok := ps.NextLesson(); ok {
				out["next_lesson"] = next
			}
			return r.out.print(out)
		},
		Subcommands: []*cli.Command{
			{Name: "complete", Flags: markFlags, Action: authed(r, mark(true))},
			{Name: "incomplete", Flags: markFlags, Action: authed(r, mark(false))},
		},
	}
}

func reviewCommands(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "course reviews",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				ArgsUsage: "COURSE_ID",
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					rs := r.store().Reviews
					if err := rs.FetchCourseReviews(c.Context, id); err != nil {
						return err
					}
					return r.out.print(rs.Snapshot().Reviews)
				},
			},
			{
				Name:      "add",
				ArgsUsage: "COURSE_ID",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rating", Required: true},
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "comment", Required: true},
				},
				Action: func(c *cli.Context) error {
					id, err := argID(c, "course id")
					if err != nil {
						return err
					}
					rev, err := r.store().Reviews.CreateReview(c.Context, id, domain.ReviewInput{
						Rating:  c.Int("rating"),
						Title:   c.String("title"),
						Comment: c.String("comment"),
					})
					if err != nil {
						return err
					}
					return r.out.print(rev)
				},
			},
			{
				Name:      "vote",
				ArgsUsage: "REVIEW_ID",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "unhelpful"}},
				Action: func(c *cli.Context) error {
					id, err := argID(c, "review id")
					if err != nil {
						return err
					}
					return r.store().Reviews.Vote(c.Context, id, !c.Bool("unhelpful"))
				},
			},
			{
				Name:      "respond",
				ArgsUsage: "REVIEW_ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "comment", Required: true}},
				Action: func(c *cli.Context) error {
					id, err := argID(c, "review id")
					if err != nil {
						return err
					}
					resp, err := r.store().Reviews.CreateResponse(c.Context, id, domain.ReviewResponseInput{Comment: c.String("comment")})
					if err != nil {
						return err
					}
					return r.out.print(resp)
				},
			},
		},
	}
}

var errNotLoggedIn = errors.New("not logged in; run coursectl auth login")

// authed fails fast without a stored token instead of sending a request
// that can only come back 401.
func authed(r *runner, fn cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if !r.store().Auth.IsAuthenticated() {
			return errNotLoggedIn
		}
		return fn(c)
	}
}
