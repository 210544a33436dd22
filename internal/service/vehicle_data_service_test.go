package service

import (
	"context"
	"testing"

	"vehicle-rag-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleDataService(t *testing.T) {
	svc := NewVehicleDataService(fakeVehicleData{})
	ctx := context.Background()

	code, err := svc.GetDiagnosticCode(ctx, "P0300")
	require.NoError(t, err)
	assert.Equal(t, "P0300", code.Code)
	assert.Len(t, code.TroubleshootingSteps, 2)

	_, err = svc.GetDiagnosticCode(ctx, "P9999")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, "Diagnostic code not found", err.Error())

	info, err := svc.GetVehicleInfo(ctx, "Toyota", "Camry", 2018)
	require.NoError(t, err)
	assert.Equal(t, 2018, info.Year)
	require.NotNil(t, info.Engine)
	assert.Equal(t, "2.5L I4", *info.Engine)

	_, err = svc.GetVehicleInfo(ctx, "Honda", "Civic", 1999)
	require.Error(t, err)
	assert.Equal(t, "Vehicle info not found", err.Error())
}
