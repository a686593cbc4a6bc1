package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"nodebridge/internal/common"
	"nodebridge/internal/config"
	"nodebridge/internal/domain/dialog360"
	"nodebridge/internal/domain/execution"
	"nodebridge/internal/infra/template"
	"nodebridge/internal/nodes"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiKey     string
	catalog    string
	loadConfig func() (*config.Config, error)
}

func newRootCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	opts := &rootOptions{loadConfig: loadConfig}

	cmd := &cobra.Command{
		Use:           "nodectl",
		Short:         "Inspect WhatsApp templates and send template messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "360Dialog API key (defaults to dialog360.api_key)")
	cmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "read templates from *.json files in this directory")

	cmd.AddCommand(newTemplatesCmd(opts), newSendCmd(opts))
	return cmd
}

// client builds a 360Dialog client from configuration and flags.
func (o *rootOptions) client() (dialog360.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if o.catalog != "" {
		cfg.Dialog360.CatalogDir = o.catalog
	}

	var catalog *template.Catalog
	if cfg.Dialog360.CatalogDir != "" {
		if catalog, err = template.NewCatalog(cfg.Dialog360.CatalogDir); err != nil {
			return nil, err
		}
	}

	return nodes.Dialog360Clients(cfg, catalog)(execution.Credentials{APIKey: o.apiKey})
}

func newTemplatesCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List message templates",
		Long:  "List every message template of the account, or print a single template with --name.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			templates, err := client.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			if name != "" {
				tmpl, err := dialog360.FindTemplate(templates, name)
				if err != nil {
					return err
				}
				obj, err := tmpl.Object()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), obj)
			}

			out := cmd.OutOrStdout()
			for _, t := range templates {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", t.Name, t.Language, t.Category, t.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "print only the template with this name")
	return cmd
}

type sendOptions struct {
	to       string
	template string
	images   string
	body     string
	dryRun   bool
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	var so sendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Compile and send a template message",
		Long: `Compile a template message from pipe separated values and send it.
With --dry-run the compiled message is printed instead of sent.`,
		Example: `  nodectl send --to 491234567 --template order_update --image https://x/a.png --body "Anna|42"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), cmd.OutOrStdout(), client, so)
		},
	}

	f := cmd.Flags()
	f.StringVar(&so.to, "to", "", "recipient WhatsApp ID")
	f.StringVar(&so.template, "template", "", "template name")
	f.StringVar(&so.images, "image", "", "header image URLs, separated by |")
	f.StringVar(&so.body, "body", "", "body placeholder values, separated by |")
	f.BoolVar(&so.dryRun, "dry-run", false, "print the compiled message without sending it")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runSend(ctx context.Context, out io.Writer, client dialog360.Client, so sendOptions) error {
	if so.to == "" || so.template == "" {
		return common.NewValidationError("--to and --template are required")
	}

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		return err
	}
	tmpl, err := dialog360.FindTemplate(templates, so.template)
	if err != nil {
		return err
	}

	msg, err := dialog360.Compile(tmpl, dialog360.Input{
		Recipient:  so.to,
		ImageURLs:  dialog360.ParseList(so.images),
		BodyValues: dialog360.ParseList(so.body),
	})
	if err != nil {
		return err
	}

	if so.dryRun {
		return writeJSON(out, msg)
	}

	resp, err := client.SendMessage(ctx, msg)
	if err != nil {
		return err
	}
	return writeJSON(out, resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
