package bedrock

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

const (
	defaultModelName = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"
	providerName     = "bedrock"
	defaultRegion    = "us-east-1"
)

func newClient(ctx context.Context, cfg model.GeneratorConfig) (*bedrockruntime.Client, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if strings.TrimSpace(cfg.URL) != "" {
			o.BaseEndpoint = aws.String(strings.TrimSpace(cfg.URL))
		}
		// one call per Generate; throttling surfaces to the caller
		o.RetryMaxAttempts = 1
	})
	return client, nil
}

// loadAWSConfig accepts static keys (AuthToken holds the access key id) or a shared profile.
func loadAWSConfig(ctx context.Context, cfg model.GeneratorConfig) (aws.Config, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	accessKeyID := strings.TrimSpace(cfg.AuthToken)
	secretAccessKey := strings.TrimSpace(cfg.SecretKey)
	profile := strings.TrimSpace(cfg.Profile)

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	switch {
	case accessKeyID != "" || secretAccessKey != "":
		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, utils.WrapIfNotNil(model.NewError(
				model.KindAuthenticationFailed,
				providerName,
				"both access key id and secret access key are required when using key-based auth",
				nil,
			))
		}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	case profile != "":
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	default:
		return aws.Config{}, utils.WrapIfNotNil(model.NewError(
			model.KindAuthenticationFailed,
			providerName,
			"missing AWS credentials: set an access key pair or a profile",
			nil,
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, utils.WrapIfNotNil(model.NewError(model.KindAuthenticationFailed, providerName, err.Error(), err))
	}
	return awsCfg, nil
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var tagged *model.Error
	if errors.As(err, &tagged) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return model.NewError(model.KindCancelled, providerName, "request cancelled", err)
	}

	message := err.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.ErrorMessage()) != "" {
		message = apiErr.ErrorMessage()
	}

	var throttling *bedrocktypes.ThrottlingException
	if errors.As(err, &throttling) {
		return model.NewError(model.KindRateLimited, providerName, message, err)
	}
	var denied *bedrocktypes.AccessDeniedException
	if errors.As(err, &denied) {
		return model.NewError(model.KindAuthenticationFailed, providerName, message, err)
	}

	var responseErr *awshttp.ResponseError
	if errors.As(err, &responseErr) {
		return utils.NewHTTPStatusError(providerName, responseErr.HTTPStatusCode(), message, err)
	}
	if utils.IsTransportError(err) {
		return model.NewError(model.KindTransientNetworkError, providerName, message, err)
	}
	return model.NewError(model.KindRequestRejected, providerName, message, err)
}

func applyBedrockMetadata(meta model.GenerationMetadata, output *bedrockruntime.ConverseOutput) {
	if meta == nil || output == nil {
		return
	}

	if output.Usage != nil {
		meta[model.MetadataKeyInputTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.InputTokens)), 10)
		meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.OutputTokens)), 10)
		meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.TotalTokens)), 10)
		meta[model.MetadataKeyCachedInputTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.CacheReadInputTokens)), 10)
	}
	if stopReason := strings.TrimSpace(string(output.StopReason)); stopReason != "" {
		meta[model.MetadataKeyResponseStatus] = stopReason
	}
	if output.Metrics != nil && aws.ToInt64(output.Metrics.LatencyMs) > 0 {
		meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(aws.ToInt64(output.Metrics.LatencyMs), 10)
	}
}
