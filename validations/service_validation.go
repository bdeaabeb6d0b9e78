package validations

import (
	"context"

	domainService "github.com/AzielCF/az-console/domains/service"
	pkgError "github.com/AzielCF/az-console/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateLogConfig(ctx context.Context, config domainService.LogConfig) error {
	err := validation.ValidateStructWithContext(ctx, &config,
		validation.Field(&config.RetentionDays, validation.Min(0), validation.Max(domainService.MaxRetentionDays)),
		validation.Field(&config.PagerdutyKey,
			is.Alphanumeric,
			validation.Length(domainService.PagerdutyKeyLength, domainService.PagerdutyKeyLength),
		),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
