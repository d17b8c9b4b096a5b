package commands

import (
	"context"
	"fmt"

	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/tenancy"
)

type ProvisionCmd struct {
	Name       string   `help:"Organization name." required:""`
	AdminName  string   `help:"Admin full name."`
	AdminEmail string   `help:"Admin email address." required:""`
	AdminPhone string   `help:"Admin phone number."`
	Plan       string   `help:"Subscription plan: trial, standard or enterprise." default:"trial"`
	UserLimit  int32    `help:"User limit override (0 uses the plan default)."`
	Modules    []string `help:"Enabled modules override (empty uses the plan default)."`
}

func (c *ProvisionCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	var modules []string
	if len(c.Modules) > 0 {
		modules = c.Modules
	}

	org, err := app.provisioner.Provision(ctx, tenancy.ProvisionInput{
		Name:           c.Name,
		AdminName:      c.AdminName,
		AdminEmail:     c.AdminEmail,
		AdminPhone:     c.AdminPhone,
		Plan:           models.Plan(c.Plan),
		UserLimit:      c.UserLimit,
		EnabledModules: modules,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Provisioned organization %s (tenant database %s)\n", org.Code, org.TenantDBName)
	return printJSON(org)
}
