package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func hasherFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "hasher",
		Usage: "Password hasher: pbkdf2 or bcrypt (default from PASSWORD_HASHER)",
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Apply the embedded schema migrations",
		Action: r.Migrate,
	}
}

func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the default roles, the admin user and sample tracker data",
		Flags: []cli.Flag{
			hasherFlag(),
			&cli.BoolFlag{
				Name:  "no-samples",
				Usage: "Only create roles and the admin user",
			},
		},
		Action: r.Seed,
	}
}

func hashPasswordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Hash a password and print hash and salt",
		ArgsUsage: "<password>",
		Flags:     []cli.Flag{hasherFlag()},
		Action:    r.HashPassword,
	}
}

func issueTokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "issue-token",
		Usage: "Issue an access token for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User name",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime (default JWT_TTL)",
			},
		},
		Action: r.IssueToken,
	}
}

func remindersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reminders",
		Usage: "Mark due anniversary reminders as sent",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List due reminders without marking them",
			},
		},
		Action: r.Reminders,
	}
}

func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print a user's status across every tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User name",
			},
			&cli.DurationFlag{
				Name:  "window",
				Usage: "How far ahead to look for important dates",
				Value: 30 * 24 * time.Hour,
			},
		},
		Action: r.Report,
	}
}
