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

package models

// EdgeEventQuery bounds a read of the durable event log. Events are
// selected by creation time and ordered by sequence number; optional
// sequence bounds are exclusive.
type EdgeEventQuery struct {
	StartTime int64 // unix millis, inclusive
	EndTime   int64 // unix millis, inclusive
	MinSeqID  *int64
	MaxSeqID  *int64
	Link      PageLink
}

// Offset is the durable per-edge cursor: everything at or before this
// point has been delivered.
type Offset struct {
	StartTs    int64
	StartSeqID int64
}

// AttributeKvEntry is one server-scope attribute value on an entity.
type AttributeKvEntry struct {
	Key          string
	StrValue     *string
	LongValue    *int64
	BoolValue    *bool
	LastUpdateTs int64
}

// NewLongAttribute builds a numeric attribute entry.
func NewLongAttribute(key string, value, ts int64) AttributeKvEntry {
	return AttributeKvEntry{Key: key, LongValue: &value, LastUpdateTs: ts}
}

// NewBoolAttribute builds a boolean attribute entry.
func NewBoolAttribute(key string, value bool, ts int64) AttributeKvEntry {
	return AttributeKvEntry{Key: key, BoolValue: &value, LastUpdateTs: ts}
}
