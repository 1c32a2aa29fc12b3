// seeduser crea una identidad (email, contraseña con bcrypt, rol) para arrancar un entorno.
//
// Uso: go run ./cmd/seeduser -email admin@example.com -password secreto123 -role admin [-name "Admin"]
// Roles: admin, manager, sales_rep, viewer. Aplica las migraciones pendientes antes de insertar.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/postgres"
	"github.com/jhoicas/costtrack-api/pkg/config"
	"github.com/jhoicas/costtrack-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "email del usuario (obligatorio)")
	password := flag.String("password", "", "contraseña en texto plano, mínimo 8 caracteres (obligatorio)")
	name := flag.String("name", "", "nombre visible")
	role := flag.String("role", "viewer", "rol: admin, manager, sales_rep o viewer")
	flag.Parse()

	if err := run(*email, *password, *name, *role); err != nil {
		fmt.Fprintln(os.Stderr, "seeduser:", err)
		os.Exit(1)
	}
}

func run(email, password, name, role string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seeduser"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	user, err := uc.CreateUser(ctx, email, password, name, role)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
			}
		}
		return err
	}
	log.Info().Str("id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("usuario creado")
	return nil
}
