// Command mint-token signs an access token for operators when the identity
// service is not available, e.g. on a local run against the memory store.
package main

import (
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/cockroachdb/errors"
    "github.com/joho/godotenv"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"

    "github.com/iliyamo/event-ticketing/internal/middleware"
    "github.com/iliyamo/event-ticketing/internal/utils"
)

var rootCmd = &cobra.Command{
    Use:           "mint-token",
    Short:         "Sign an HS256 access token for the ticket service",
    SilenceUsage:  true,
    SilenceErrors: true,
    RunE:          run,
}

func init() {
    f := rootCmd.Flags()
    f.String("sub", "operator", "token subject")
    f.String("role", middleware.RoleStaff, "ADMIN or STAFF")
    f.Duration("ttl", 12*time.Hour, "token lifetime")
    f.String("secret", "", "signing secret (default $JWT_SECRET)")
    _ = viper.BindPFlag("JWT_SECRET", f.Lookup("secret"))
    viper.AutomaticEnv()
}

func run(cmd *cobra.Command, _ []string) error {
    sub, _ := cmd.Flags().GetString("sub")
    role, _ := cmd.Flags().GetString("role")
    ttl, _ := cmd.Flags().GetDuration("ttl")
    role = strings.ToUpper(role)
    if role != middleware.RoleAdmin && role != middleware.RoleStaff {
        return errors.Newf("unknown role %q", role)
    }
    secret := viper.GetString("JWT_SECRET")
    if secret == "" {
        return errors.New("no signing secret: set JWT_SECRET or pass --secret")
    }
    tok, err := utils.NewAccessToken(secret, sub, role, ttl)
    if err != nil {
        return err
    }
    fmt.Println(tok.Token)
    return nil
}

func main() {
    _ = godotenv.Load()
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "mint-token:", err)
        os.Exit(1)
    }
}
