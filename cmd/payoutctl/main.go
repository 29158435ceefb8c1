package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"rewards_engine/internal/config"
	"rewards_engine/internal/model"
	"rewards_engine/internal/repository"
	"rewards_engine/internal/service"
	"rewards_engine/pkg/clock"
	"rewards_engine/pkg/logger"
	"rewards_engine/pkg/money"

	"github.com/docopt/docopt-go"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const usage = `Rewards payout control.

Usage:
    payoutctl db migrate [--config=<dir>]
    payoutctl payouts run-daily [--config=<dir>]
    payoutctl payouts request <user_id> [--config=<dir>]
    payoutctl payouts set-status <payout_id> <status> [--config=<dir>]
    payoutctl requests set-status <request_id> <status> [--config=<dir>]
    payoutctl earnings <user_id> [--status=<status>] [--config=<dir>]
    payoutctl referrals rate [--config=<dir>]

Options:
    -h --help            Show this screen.
    --config=<dir>       Directory holding config.yaml [default: ./].
    --status=<status>    Payout status: any, unpaid, requesting, paid [default: any].`

type CtlArgs struct {
	Config string `docopt:"--config"`
	Status string `docopt:"--status"`
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], "payoutctl 1.0")
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	args := CtlArgs{}
	if err := opts.Bind(&args); err != nil {
		log.Fatalf("Failed to bind arguments: %v", err)
	}

	cfg, err := config.LoadConfig(args.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	serviceConfig, err := cfg.Service()
	if err != nil {
		log.Fatalf("Invalid payouts config: %v", err)
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	svc := service.NewServiceFromStore(repo, clock.Real(), serviceConfig)

	if err := dispatch(ctx, opts, args, repo, svc); err != nil {
		logger.Logger().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, opts docopt.Opts, args CtlArgs, repo *repository.Repository, svc *service.Service) error {
	if db, _ := opts.Bool("db"); db {
		return repo.Migrate(ctx)
	}

	if payouts, _ := opts.Bool("payouts"); payouts {
		if runDaily, _ := opts.Bool("run-daily"); runDaily {
			return runDailyPayouts(ctx, svc)
		} else if request, _ := opts.Bool("request"); request {
			return requestPayout(ctx, opts, svc)
		} else if setStatus, _ := opts.Bool("set-status"); setStatus {
			return setPayoutStatus(ctx, opts, svc)
		}
	}

	if requests, _ := opts.Bool("requests"); requests {
		return setRequestStatus(ctx, opts, svc)
	}

	if earnings, _ := opts.Bool("earnings"); earnings {
		return showEarnings(ctx, opts, args, svc)
	}

	if referrals, _ := opts.Bool("referrals"); referrals {
		amount, err := svc.CurrentPayoutPerReferral(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"payout_per_referral": amount,
		})
	}

	return fmt.Errorf("unknown command")
}

func runDailyPayouts(ctx context.Context, svc *service.Service) error {
	report, err := svc.RunDailyPayouts(ctx)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func requestPayout(ctx context.Context, opts docopt.Opts, svc *service.Service) error {
	userID, err := intArg(opts, "<user_id>")
	if err != nil {
		return err
	}

	request, err := svc.RequestPayout(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(request)
}

func setPayoutStatus(ctx context.Context, opts docopt.Opts, svc *service.Service) error {
	id, err := intArg(opts, "<payout_id>")
	if err != nil {
		return err
	}

	raw, _ := opts.String("<status>")
	status, ok := model.ParsePayoutStatus(raw)
	if !ok || status == model.PayoutStatusAny {
		return fmt.Errorf("invalid payout status %q", raw)
	}

	payout, err := svc.SetPayoutStatus(ctx, id, status)
	if err != nil {
		return err
	}
	return printJSON(payout)
}

func setRequestStatus(ctx context.Context, opts docopt.Opts, svc *service.Service) error {
	id, err := intArg(opts, "<request_id>")
	if err != nil {
		return err
	}

	raw, _ := opts.String("<status>")
	status, ok := model.ParsePayoutRequestStatus(raw)
	if !ok {
		return fmt.Errorf("invalid payout request status %q", raw)
	}

	request, err := svc.SetPayoutRequestStatus(ctx, id, status)
	if err != nil {
		return err
	}
	return printJSON(request)
}

func showEarnings(ctx context.Context, opts docopt.Opts, args CtlArgs, svc *service.Service) error {
	userID, err := intArg(opts, "<user_id>")
	if err != nil {
		return err
	}

	status, ok := model.ParsePayoutStatus(args.Status)
	if !ok {
		return fmt.Errorf("invalid payout status %q", args.Status)
	}

	amount, err := svc.EarnedAmount(ctx, userID, status)
	if err != nil {
		return err
	}
	payouts, err := svc.EarnedPayouts(ctx, userID, status)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"status":      status.String(),
		"amount":      amount,
		"amount_text": money.CentsToDollars(amount, true),
		"payouts":     len(payouts),
	})
}

func intArg(opts docopt.Opts, name string) (int64, error) {
	raw, err := opts.String(name)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", out)
	return nil
}
