package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/celerix-dev/certify-one/pkg/sdk"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string
	var verbose bool

	root := &cobra.Command{
		Use:   "certify",
		Short: "Training and certification records",
		Long: `certify manages training records in a certify-one store.

When CERTIFY_STORE_ADDR is set and the daemon answers, commands go over the
network. Otherwise the store in --data-dir is opened in-process.

Environment Variables:
  CERTIFY_STORE_ADDR    Address of the store daemon (e.g. localhost:7101)
  CERTIFY_DISABLE_TLS   Set to true to disable TLS`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "data directory for the embedded store")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log connection warnings to stderr")

	open := func() (pkgengine.TrainingStore, func(), error) {
		log := zap.NewNop().Sugar()
		if verbose {
			l, err := zap.NewDevelopment()
			if err == nil {
				log = l.Sugar()
			}
		}
		store, err := sdk.New(dataDir, sdk.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if c, ok := store.(io.Closer); ok {
				c.Close()
			}
			log.Sync()
		}
		return store, closeFn, nil
	}

	root.AddCommand(
		newListCmd(open),
		newGetCmd(open),
		newAddCmd(open),
		newUpdateCmd(open),
		newDeleteCmd(open),
		newCertsCmd(open),
		newReportCmd(open),
		newExportCmd(open),
	)
	return root
}

type opener func() (pkgengine.TrainingStore, func(), error)

func newListCmd(open opener) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List training records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			var list []schema.Record
			if kind == "" || kind == "all" {
				list, err = store.List()
			} else {
				list, err = store.ListKind(schema.Kind(kind))
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderRecords(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "record kind: session|course|certification")
	return cmd
}

func newGetCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newAddCmd(open opener) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "add --json <form>",
		Short: "Add a record from form JSON",
		Long: `Add a record from form JSON. Use --json - to read the form from stdin.

Example:
  certify add --json '{"kind":"course","employeeName":"Jane Doe","title":"Go","status":"in-progress"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, err := readForm(cmd.InOrStdin(), payload)
			if err != nil {
				return err
			}
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			rec, err := store.Add(context.Background(), form)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Training Added"), rec.Common().ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload, "json", "", "form data as JSON")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

func newUpdateCmd(open opener) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "update <id> --json <form>",
		Short: "Replace a record from form JSON, keeping its id and creation time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readForm(cmd.InOrStdin(), payload)
			if err != nil {
				return err
			}
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			rec, err := store.Update(context.Background(), args[0], form)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Training Updated"), rec.Common().ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload, "json", "", "form data as JSON")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

func newDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			if err := store.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Training Deleted"), args[0])
			return nil
		},
	}
}

func newCertsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "certs",
		Short: "List certifications with issuer, level and expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			certs, err := sdk.ListAs[*schema.Certification](store)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderCertifications(certs))
			return nil
		},
	}
}

func readForm(stdin io.Reader, payload string) (schema.FormData, error) {
	var form schema.FormData
	data := []byte(payload)
	if payload == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return form, err
		}
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return form, errors.Wrap(err, "invalid form json")
	}
	return form, nil
}

func printJSON(w io.Writer, v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bytes))
	return err
}
