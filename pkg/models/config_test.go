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

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "duration string", input: `"3s"`, want: 3 * time.Second},
		{name: "compound string", input: `"1m30s"`, want: 90 * time.Second},
		{name: "numeric nanoseconds", input: `1000000000`, want: time.Second},
		{name: "malformed string", input: `"fast"`, wantErr: true},
		{name: "wrong type", input: `true`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var d Duration

			err := json.Unmarshal([]byte(tc.input), &d)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, time.Duration(d))
		})
	}
}

func TestDuration_MarshalRoundtrip(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	var d Duration
	require.NoError(t, json.Unmarshal(out, &d))
	assert.Equal(t, Duration(90*time.Second), d)
}

func TestEdgeSyncSettings_Validate(t *testing.T) {
	t.Parallel()

	valid := DefaultEdgeSyncSettings()
	require.NoError(t, valid.Validate())

	noBatch := valid
	noBatch.MaxReadRecordsCount = 0
	require.ErrorIs(t, noBatch.Validate(), ErrBatchSizeInvalid)

	badWrap := valid
	badWrap.MaxSeqID = -1
	require.ErrorIs(t, badWrap.Validate(), ErrMaxSeqIDInvalid)

	noTimeout := valid
	noTimeout.RPCTimeout = 0
	require.ErrorIs(t, noTimeout.Validate(), ErrRPCTimeoutInvalid)
}

func TestCoreConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := &CoreConfig{}
	require.ErrorIs(t, cfg.Validate(), ErrDatabaseRequired)

	cfg.Database = &DatabaseConfig{}
	require.ErrorIs(t, cfg.Validate(), ErrDatabaseHost)

	cfg.Database.Host = "localhost"
	require.ErrorIs(t, cfg.Validate(), ErrDatabaseName)

	cfg.Database.Database = "edgefleet"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultEdgeSyncSettings(), cfg.EdgeSync,
		"unset sync settings fall back to the defaults")
}
