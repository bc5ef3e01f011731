package trade

import (
	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/domain/trade"
)

var triggerPermissions = map[trade.Trigger]string{
	trade.TriggerConfirm:            authz.PermOrderConfirm,
	trade.TriggerApproveQC:          authz.PermOrderQC,
	trade.TriggerRejectQC:           authz.PermOrderQC,
	trade.TriggerDispatch:           authz.PermOrderDispatch,
	trade.TriggerDeliver:            authz.PermOrderDeliver,
	trade.TriggerConfirmDelivered:   authz.PermOrderDeliver,
	trade.TriggerMarkExpectedReturn: authz.PermOrderReturn,
	trade.TriggerReceiveReturn:      authz.PermExpectedReturnReceive,
	trade.TriggerCancel:             authz.PermOrderCancel,
	trade.TriggerDelete:             authz.PermOrderDelete,
}

// TriggerPermission returns the capability required to fire a trigger
func TriggerPermission(trigger trade.Trigger) string {
	return triggerPermissions[trigger]
}
