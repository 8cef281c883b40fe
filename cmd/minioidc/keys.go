package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Administra la clave de firma RS256",
	}
	cmd.AddCommand(newKeysGenerateCmd(opts), newKeysJWKSCmd(opts))
	return cmd
}

// keyFile resuelve --file o, si falta, keys.file de la config.
func keyFile(opts *rootOptions, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return "", err
	}
	if cfg.Keys.File == "" {
		return "", errors.New("no key file: pass --file or set keys.file / SIGNING_KEY_FILE")
	}
	return cfg.Keys.File, nil
}

func newKeysGenerateCmd(opts *rootOptions) *cobra.Command {
	var file string
	var force bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera una clave RSA nueva y la guarda como PEM",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := keyFile(opts, file)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			ks, err := jwtx.NewRSAKeySet()
			if err != nil {
				return err
			}
			if err := jwtx.SaveKeySet(path, ks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kid=%s file=%s\n", ks.KID, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "ruta del PEM (default: keys.file)")
	cmd.Flags().BoolVar(&force, "force", false, "sobrescribir si existe")
	return cmd
}

func newKeysJWKSCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el JWKS público de la clave guardada",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := keyFile(opts, file)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			ks, err := jwtx.DecodeKeySetPEM(data)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(ks.JWKSJSON(), '\n'))
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "ruta del PEM (default: keys.file)")
	return cmd
}
