package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mintworks/mintra/internal/models"
)

type UpdateOrgCmd struct {
	Code      string   `arg:"" help:"Organization code, e.g. MNT-25-26-3."`
	Name      *string  `help:"New organization name."`
	Plan      *string  `help:"New subscription plan."`
	UserLimit *int32   `help:"New user limit."`
	Status    *string  `help:"New status: active or suspended."`
	Modules   []string `help:"New enabled module set (replaces the old set)."`
}

func (c *UpdateOrgCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	patch := models.OrganizationPatch{
		Name:      c.Name,
		UserLimit: c.UserLimit,
	}
	if c.Plan != nil {
		plan := models.Plan(*c.Plan)
		patch.Plan = &plan
	}
	if c.Status != nil {
		status := models.Status(*c.Status)
		patch.Status = &status
	}
	if c.Modules != nil {
		modules := c.Modules
		patch.EnabledModules = &modules
	}

	org, err := app.synchronizer.UpdateOrganization(ctx, c.Code, patch)
	if err != nil {
		return err
	}

	fmt.Printf("Updated organization %s\n", org.Code)
	return printJSON(org)
}

type UpdateAdminCmd struct {
	Code     string  `arg:"" help:"Organization code, e.g. MNT-25-26-3."`
	FullName *string `help:"New admin full name."`
	Email    *string `help:"New admin email."`
	Phone    *string `help:"New admin phone."`
}

func (c *UpdateAdminCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	admin, err := app.synchronizer.UpdateAdmin(ctx, c.Code, models.AdminPatch{
		FullName: c.FullName,
		Email:    c.Email,
		Phone:    c.Phone,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Updated admin for %s\n", admin.OrgCode)
	return printJSON(admin)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
