package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

func (a *app) dispatch(ctx context.Context, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "login":
		return a.login(ctx, args, out)
	case "logout":
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil
	case "list":
		return a.list(ctx, args, out)
	case "create":
		return a.create(ctx, args, out)
	case "delete":
		return a.delete(ctx, args, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func (a *app) login(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", common.EnvOrDefault("RECRUIT_EMAIL", ""), "account email")
	password := fs.String("password", common.EnvOrDefault("RECRUIT_PASSWORD", ""), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "logged in as %s\n", res.UserId)
	return nil
}

func (a *app) list(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("list: missing resource")
	}
	resourceName := args[0]

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 0, "page index")
	size := fs.Int("size", 10, "page size")
	filter := fs.String("filter", "", "name filter")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	req := model.PageRequest{PageIndex: *page, PageSize: *size}
	if *filter != "" {
		req.Filter = filter
	}

	var (
		rows  [][2]string
		total int
	)
	switch resourceName {
	case "organization", "organizations":
		p, err := a.recruit.ListOrganizations(ctx, req)
		if err != nil {
			return describe(err)
		}
		total = p.TotalRecords
		for _, r := range p.Records {
			rows = append(rows, [2]string{r.Uid, r.Name})
		}
	case "department", "departments":
		p, err := a.recruit.ListDepartments(ctx, req)
		if err != nil {
			return describe(err)
		}
		total = p.TotalRecords
		for _, r := range p.Records {
			rows = append(rows, [2]string{r.Uid, r.Name})
		}
	case "position", "positions":
		p, err := a.recruit.ListPositions(ctx, req)
		if err != nil {
			return describe(err)
		}
		total = p.TotalRecords
		for _, r := range p.Records {
			rows = append(rows, [2]string{r.Uid, r.Name + " (" + r.Status + ")"})
		}
	case "task", "tasks":
		p, err := a.recruit.ListTasks(ctx, req)
		if err != nil {
			return describe(err)
		}
		total = p.TotalRecords
		for _, r := range p.Records {
			rows = append(rows, [2]string{r.Uid, r.Name})
		}
	case "template", "templates", "formtemplate":
		p, err := a.recruit.ListTemplates(ctx, req)
		if err != nil {
			return describe(err)
		}
		total = p.TotalRecords
		for _, r := range p.Records {
			rows = append(rows, [2]string{r.Uid, r.Name})
		}
	default:
		return fmt.Errorf("unknown resource %q", resourceName)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tNAME")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d\n", len(rows), total)
	return nil
}

func (a *app) create(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("create: usage create <resource> <name> [description]")
	}
	name := args[1]
	var desc string
	if len(args) > 2 {
		desc = args[2]
	}

	var uid string
	switch args[0] {
	case "organization":
		e, err := a.recruit.CreateOrganization(ctx, model.OrganizationRequest{Name: name, Description: desc})
		if err != nil {
			return describe(err)
		}
		uid = e.Uid
	case "department":
		e, err := a.recruit.CreateDepartment(ctx, model.DepartmentRequest{Name: name, Description: desc})
		if err != nil {
			return describe(err)
		}
		uid = e.Uid
	case "position":
		e, err := a.recruit.CreatePosition(ctx, model.PositionRequest{Name: name, Description: desc, Status: "active"})
		if err != nil {
			return describe(err)
		}
		uid = e.Uid
	case "task":
		e, err := a.recruit.CreateTask(ctx, model.TaskRequest{Name: name, Description: desc})
		if err != nil {
			return describe(err)
		}
		uid = e.Uid
	case "template", "formtemplate":
		e, err := a.recruit.CreateTemplate(ctx, model.TemplateRequest{Name: name, Description: desc})
		if err != nil {
			return describe(err)
		}
		uid = e.Uid
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	fmt.Fprintf(out, "created %s %s\n", args[0], uid)
	return nil
}

func (a *app) delete(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("delete: usage delete <resource> <uid>")
	}
	var err error
	switch args[0] {
	case "organization":
		err = a.recruit.DeleteOrganization(ctx, args[1])
	case "department":
		err = a.recruit.DeleteDepartment(ctx, args[1])
	case "position":
		err = a.recruit.DeletePosition(ctx, args[1])
	case "task":
		err = a.recruit.DeleteTask(ctx, args[1])
	case "template", "formtemplate":
		err = a.recruit.DeleteTemplate(ctx, args[1])
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "deleted %s %s\n", args[0], args[1])
	return nil
}

// describe appends field errors to a validation failure's message.
func describe(err error) error {
	fields := common.ValidationErrors(err)
	if len(fields) == 0 {
		return err
	}
	msg := err.Error()
	for f, m := range fields {
		msg += fmt.Sprintf("\n  %s: %s", f, m)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
