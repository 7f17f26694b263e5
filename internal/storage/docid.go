// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"strconv"
	"time"
)

// DocumentID 带来源标记的文档 ID。持久 ID 来自元数据存储；
// 临时 ID 在存储无法确认持久 ID 时本地生成，仅用于当次任务内
// 关联切片与向量，不写回 documents 表。
type DocumentID struct {
	Value       int64 `json:"value"`
	Provisional bool  `json:"provisional"`
}

// DurableID 构造持久 ID
func DurableID(v int64) DocumentID {
	return DocumentID{Value: v}
}

// ProvisionalID 基于当前时间戳构造临时 ID
func ProvisionalID() DocumentID {
	return DocumentID{Value: time.Now().UnixNano(), Provisional: true}
}

// String 实现 fmt.Stringer
func (d DocumentID) String() string {
	s := strconv.FormatInt(d.Value, 10)
	if d.Provisional {
		return s + " (provisional)"
	}
	return s
}
