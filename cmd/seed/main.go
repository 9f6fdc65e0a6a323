package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"cims/internal/config"
	"cims/internal/db"
	"cims/internal/logger"
	"cims/internal/model"
	"cims/internal/repository"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))
	slog.Info("starting seed")

	provider, err := db.Open(cfg.CIMSDSN, cfg.ProjectDSN, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		slog.Error("database init", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	if err := provider.CIMS.AutoMigrate(model.CIMSTables()...); err != nil {
		slog.Error("migrate cims database", "error", err)
		os.Exit(1)
	}
	if err := provider.Project.AutoMigrate(model.ProjectTables()...); err != nil {
		slog.Error("migrate project database", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations completed")

	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "admin"
	}
	members := repository.NewMemberRepository(provider.CIMS)
	id, created, err := seedAdmin(context.Background(), members, name, cfg.DefaultPassword, cfg.HomeGroupID)
	if err != nil {
		slog.Error("seed admin", "error", err)
		os.Exit(1)
	}
	if created {
		slog.Info("admin member created", "member_id", id, "group_id", cfg.HomeGroupID)
	} else {
		slog.Info("admin member already present", "member_id", id)
	}
}

// seedAdmin makes sure the home group holds an admin member called name.
// It reports the member ID and whether a new member was created.
func seedAdmin(ctx context.Context, members repository.MemberRepository, name, password, groupID string) (uint, bool, error) {
	var existing uint
	err := members.WithConnection(ctx, func(ctx context.Context, repo repository.MemberRepository) error {
		listed, err := repo.ListByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		for _, m := range listed {
			if m.Name != name {
				continue
			}
			credential, err := repo.FindCredential(ctx, m.ID)
			if repository.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if credential.Role == model.RoleAdmin {
				existing = m.ID
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("look up admin: %w", err)
	}
	if existing != 0 {
		return existing, false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, false, fmt.Errorf("hash password: %w", err)
	}

	member := &model.Member{Name: name}
	err = members.WithTransaction(ctx, func(ctx context.Context, repo repository.MemberRepository) error {
		if err := repo.Create(ctx, member); err != nil {
			return err
		}
		if err := repo.CreateCredential(ctx, &model.Credential{
			MemberID:     member.ID,
			PasswordHash: string(hash),
			Role:         model.RoleAdmin,
		}); err != nil {
			return err
		}
		return repo.AddMapping(ctx, &model.GroupMapping{MemberID: member.ID, GroupID: groupID})
	})
	if err != nil {
		return 0, false, fmt.Errorf("create admin: %w", err)
	}
	return member.ID, true, nil
}
