package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"task-review-system.com/task-review-system/internal/constants"
	model "task-review-system.com/task-review-system/internal/models"
	repository "task-review-system.com/task-review-system/internal/repositories"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the user directory",
}

var (
	userID    string
	userName  string
	userEmail string
	userRole  string
)

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user to the directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := constants.Role(userRole)
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", userRole)
		}

		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		user := &model.User{ID: userID, Name: userName, Email: userEmail, Role: role}
		if err := repository.NewUserRepository(db).Create(cmd.Context(), user); err != nil {
			return err
		}

		logger.Info("user added", zap.String("id", user.ID), zap.String("role", string(user.Role)))
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userID, "id", "", "user reference")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userAddCmd.Flags().StringVar(&userRole, "role", "", "admin, learner, accessor, iqa or eqa")
	_ = userAddCmd.MarkFlagRequired("id")
	_ = userAddCmd.MarkFlagRequired("role")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}
