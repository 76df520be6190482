package config

import (
	"os"
	"strconv"
	"time"
)

const DATABASE_TYPE = "SFLOW_DATABASE_TYPE"
const DATABASE_URL = "SFLOW_DATABASE_URL"
const DATABASE_SQLITE_FILE_NAME = "SFLOW_DATABASE_SQLITE_FILE_NAME"
const ENGINE_WORKER_COUNT = "SFLOW_ENGINE_WORKER_COUNT" //number of tick workers ie the parallel nature of instances
const ENGINE_QUEUE_SIZE = "SFLOW_ENGINE_QUEUE_SIZE"     //buffer of the tick queue
const ENGINE_MAX_RETRY_COUNT = "SFLOW_ENGINE_MAX_RETRY_COUNT"
const ENGINE_RETRY_INTERVAL_MIN = "SFLOW_ENGINE_RETRY_INTERVAL_MIN"
const ENGINE_RETRY_INTERVAL_MAX = "SFLOW_ENGINE_RETRY_INTERVAL_MAX"
const ENGINE_SLEEP_INTERVAL = "SFLOW_ENGINE_SLEEP_INTERVAL" //default park time for SLEEP without an explicit delay

const DATABASE_TYPE_MEMORY = "MEMORY"
const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLITE = "SQLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingDuration(settingKey string) time.Duration {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == ENGINE_WORKER_COUNT {
		return "5" // default to 5 workers
	}
	if settingKey == ENGINE_QUEUE_SIZE {
		return "64"
	}
	if settingKey == ENGINE_MAX_RETRY_COUNT {
		return "3"
	}
	if settingKey == ENGINE_RETRY_INTERVAL_MIN {
		return "1s"
	}
	if settingKey == ENGINE_RETRY_INTERVAL_MAX {
		return "60s"
	}
	if settingKey == ENGINE_SLEEP_INTERVAL {
		return "5s"
	}
	if settingKey == DATABASE_TYPE {
		return DATABASE_TYPE_MEMORY
	}
	if settingKey == DATABASE_SQLITE_FILE_NAME {
		return "./stepflow.db"
	}
	return ""
}
