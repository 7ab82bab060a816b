package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jackc/pgx/v5/pgxpool"
	appconfig "github.com/megbaru-hub/teffexpo/internal/config"
	"github.com/megbaru-hub/teffexpo/internal/db"
)

type result struct {
	NotificationsDeleted int64
	CartItemsDeleted     int64
}

// MetricPutter is the subset of the CloudWatch client used for reporting
type MetricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

func putMetrics(ctx context.Context, cw MetricPutter, ns string, r result, now time.Time) error {
	metrics := []cwtypes.MetricDatum{
		{MetricName: awsStr("RowsDeleted"), Timestamp: &now, Unit: cwtypes.StandardUnitCount, Value: awsFloat(r.NotificationsDeleted), Dimensions: dims("Table", "notifications_read")},
		{MetricName: awsStr("RowsDeleted"), Timestamp: &now, Unit: cwtypes.StandardUnitCount, Value: awsFloat(r.CartItemsDeleted), Dimensions: dims("Table", "carts_stale")},
	}
	_, err := cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &ns,
		MetricData: metrics,
	})
	return err
}

// envDays reads a positive day count, falling back to def.
func envDays(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func cutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

func handler(ctx context.Context) (string, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-central-1"
	}
	secretArn := os.Getenv("SECRET_ARN")
	if secretArn == "" {
		return "", fmt.Errorf("SECRET_ARN env var is required")
	}
	ns := os.Getenv("METRIC_NAMESPACE")
	if ns == "" {
		ns = "TeffExpo/NotificationCleanup"
	}
	notificationDays := envDays("NOTIFICATION_RETENTION_DAYS", 30)
	cartDays := envDays("CART_RETENTION_DAYS", 60)

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("aws config: %w", err)
	}
	sm := secretsmanager.NewFromConfig(awsCfg)
	cw := cloudwatch.NewFromConfig(awsCfg)

	dbURL, err := appconfig.DatabaseURLFromSecret(ctx, sm, secretArn)
	if err != nil {
		return "", err
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return "", fmt.Errorf("parse db url: %w", err)
	}
	// keep pool tiny
	cfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()
	store := db.NewStore(&db.Database{Pool: pool})

	now := time.Now().UTC()
	var res result

	stmtCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	res.NotificationsDeleted, err = store.DeleteReadNotificationsBefore(stmtCtx, cutoff(now, notificationDays))
	cancel()
	if err != nil {
		return "", fmt.Errorf("read notifications: %w", err)
	}

	stmtCtx, cancel = context.WithTimeout(ctx, 10*time.Second)
	res.CartItemsDeleted, err = store.DeleteStaleCartItems(stmtCtx, cutoff(now, cartDays))
	cancel()
	if err != nil {
		return "", fmt.Errorf("stale carts: %w", err)
	}

	log.Printf("[CLEANUP] Deleted rows: notifications_read=%d (>%dd) carts_stale=%d (>%dd)",
		res.NotificationsDeleted, notificationDays, res.CartItemsDeleted, cartDays)

	if err := putMetrics(ctx, cw, ns, res, now); err != nil {
		log.Printf("PutMetricData failed: %v", err)
	}

	return "ok", nil
}

func awsStr(s string) *string { return &s }
func awsFloat(i int64) *float64 {
	f := float64(i)
	return &f
}

func dims(k, v string) []cwtypes.Dimension {
	return []cwtypes.Dimension{{Name: &k, Value: &v}}
}

func main() { lambda.Start(handler) }
