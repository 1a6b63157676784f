package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellolti/internal/config"
	"github.com/dropDatabas3/hellolti/internal/keys"
)

func main() {
	root := &cobra.Command{
		Use:   "keys",
		Short: "Herramientas de claves para el servidor LTI",
	}

	// generate: par RSA en PEM (PKCS#8 + PKIX)
	var (
		genBits int
		genOut  string
		genName string
	)
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera un par de claves RSA en PEM",
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := rsa.GenerateKey(rand.Reader, genBits)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			privDER, err := x509.MarshalPKCS8PrivateKey(priv)
			if err != nil {
				return fmt.Errorf("marshal private: %w", err)
			}
			pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
			if err != nil {
				return fmt.Errorf("marshal public: %w", err)
			}

			privPath := filepath.Join(genOut, genName+".pem")
			pubPath := filepath.Join(genOut, genName+".pub.pem")
			if err := writePEM(privPath, "PRIVATE KEY", privDER, 0o600); err != nil {
				return err
			}
			if err := writePEM(pubPath, "PUBLIC KEY", pubDER, 0o644); err != nil {
				return err
			}
			fmt.Printf("private: %s\npublic:  %s\n", privPath, pubPath)
			return nil
		},
	}
	generateCmd.Flags().IntVar(&genBits, "bits", 2048, "Tamaño de la clave RSA")
	generateCmd.Flags().StringVar(&genOut, "out-dir", ".", "Directorio de salida")
	generateCmd.Flags().StringVar(&genName, "name", "key", "Prefijo de los archivos generados")

	// jwks: imprime el JWKS público de un key set del config
	var (
		jwksConfig string
		jwksSet    string
	)
	jwksCmd := &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el JWKS público de un key set declarado en el config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(jwksConfig)
			if err != nil {
				return err
			}
			var chains []*keys.KeyChain
			for _, kc := range cfg.Keys {
				if kc.KeySetName != jwksSet {
					continue
				}
				chain, err := buildChain(kc)
				if err != nil {
					return err
				}
				chains = append(chains, chain)
			}
			if len(chains) == 0 {
				return fmt.Errorf("no chains found for key set %q", jwksSet)
			}
			doc, err := keys.BuildJWKS(chains...)
			if err != nil {
				return err
			}
			fmt.Println(string(doc.JSON()))
			return nil
		},
	}
	jwksCmd.Flags().StringVar(&jwksConfig, "config", "configs/config.yaml", "Ruta al config YAML")
	jwksCmd.Flags().StringVar(&jwksSet, "key-set", "", "Nombre del key set (key_set_name)")
	_ = jwksCmd.MarkFlagRequired("key-set")

	root.AddCommand(generateCmd)
	root.AddCommand(jwksCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: der})
}

func buildChain(kc config.KeyChainConfig) (*keys.KeyChain, error) {
	var opts []keys.Option
	switch kc.Source {
	case "pem":
		opts = append(opts, keys.WithSource(keys.SourcePEM))
	case "base64":
		opts = append(opts, keys.WithSource(keys.SourceBase64))
	case "file":
		opts = append(opts, keys.WithSource(keys.SourceFile))
	}
	if kc.Algorithm != "" {
		opts = append(opts, keys.WithAlgorithm(kc.Algorithm))
	}
	public := keys.NewKey(kc.PublicKey, opts...)
	var private *keys.Key
	if kc.PrivateKey != "" {
		privOpts := opts
		if kc.Passphrase != "" {
			privOpts = append(privOpts[:len(privOpts):len(privOpts)], keys.WithPassphrase(kc.Passphrase))
		}
		private = keys.NewKey(kc.PrivateKey, privOpts...)
	}
	return keys.NewKeyChain(kc.ID, kc.KeySetName, public, private)
}
