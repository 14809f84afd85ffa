package main

import (
	"fmt"
	"os"

	"github.com/form3tech-oss/pact-core/pkg/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func loadPactFile(path string) (models.Pact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Pact{}, errors.Wrapf(err, "unable to read %s", path)
	}
	pact, err := models.LoadPact(data)
	if err != nil {
		return pact, errors.Wrapf(err, "unable to load %s", path)
	}
	return pact, nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <pact file>...",
		Short:   "Check that contract files can be loaded",
		Example: `pact-core validate pacts/web-users.json`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				pact, err := loadPactFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s, pact specification %s, %d interactions\n",
					path, pact.Consumer.Name, pact.Provider.Name, pact.SpecVersion, len(pact.Interactions))
			}
			if failed > 0 {
				return errors.Errorf("%d of %d files failed to load", failed, len(args))
			}
			return nil
		},
	}
}

func newConvertCmd() *cobra.Command {
	var (
		version string
		output  string
	)

	cmd := &cobra.Command{
		Use:     "convert <pact file>",
		Short:   "Rewrite a contract file as another pact specification version",
		Example: `pact-core convert --version 4.0.0 --output v4.json pacts/web-users.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := models.ParseSpecVersion(version)
			if target == models.SpecUnknown {
				return errors.Errorf("unsupported pact specification %q", version)
			}

			pact, err := loadPactFile(args[0])
			if err != nil {
				return err
			}
			data, err := pact.ToJSON(target)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return errors.Wrapf(os.WriteFile(output, append(data, '\n'), 0o644), "unable to write %s", output)
		},
	}

	cmd.Flags().StringVar(&version, "version", models.V4.String(), "pact specification version to write")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, defaults to stdout")

	return cmd
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <pact file>",
		Short: "Print the identity key of every interaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pact, err := loadPactFile(args[0])
			if err != nil {
				return err
			}
			for _, interaction := range pact.Interactions {
				keyed := interaction.WithKey()
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", *keyed.Key, keyed.TypeName(), keyed.Description)
			}
			return nil
		},
	}
}
