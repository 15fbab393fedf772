/*
 * Copyright 2025 the EdgeFleet Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package edge

import "github.com/edgefleet/edgefleet/pkg/models"

// ActivityAttributeKey is the boolean server-scope attribute on the
// edge entity that gates the offline persistence policy.
const ActivityAttributeKey = "active"

// mustDeliverActions are delivered even to an inactive edge. Dropping
// them would lose state the edge cannot rediscover on reconnect.
var mustDeliverActions = map[models.EdgeEventAction]struct{}{
	models.ActionTimeseriesUpdated: {},
	models.ActionAlarmAck:          {},
	models.ActionAlarmClear:        {},
	models.ActionAlarmAssigned:     {},
	models.ActionAlarmUnassigned:   {},
	models.ActionCommentAdded:      {},
	models.ActionCommentUpdated:    {},
	models.ActionDeleted:           {},
}

// mustDeliverTypes are infrastructure categories persisted for an
// inactive edge regardless of the action.
var mustDeliverTypes = map[models.EdgeEventType]struct{}{
	models.EdgeEventTypeAlarm:                {},
	models.EdgeEventTypeAlarmComment:         {},
	models.EdgeEventTypeRuleChain:            {},
	models.EdgeEventTypeRuleChainMetadata:    {},
	models.EdgeEventTypeUser:                 {},
	models.EdgeEventTypeCustomer:             {},
	models.EdgeEventTypeTenant:               {},
	models.EdgeEventTypeTenantProfile:        {},
	models.EdgeEventTypeWidgetsBundle:        {},
	models.EdgeEventTypeWidgetType:           {},
	models.EdgeEventTypeAdminSettings:        {},
	models.EdgeEventTypeOTAPackage:           {},
	models.EdgeEventTypeQueue:                {},
	models.EdgeEventTypeRelation:             {},
	models.EdgeEventTypeCalculatedField:      {},
	models.EdgeEventTypeAIModel:              {},
	models.EdgeEventTypeNotificationTemplate: {},
	models.EdgeEventTypeNotificationTarget:   {},
	models.EdgeEventTypeNotificationRule:     {},
}

// PersistDecision resolves the offline persistence policy for one
// candidate event. The activity attribute is nil when the edge was
// never activated; such edges accumulate no events at all.
func PersistDecision(active *bool, eventType models.EdgeEventType, action models.EdgeEventAction) bool {
	if active == nil {
		return false
	}

	if *active {
		return true
	}

	if _, ok := mustDeliverActions[action]; ok {
		return true
	}

	_, ok := mustDeliverTypes[eventType]

	return ok
}
