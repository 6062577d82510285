// Package docs Swagger 文档
// 修改接口注释后执行 swag init -g cmd/main.go 重新生成
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/analytics": {
			"get": {
				"tags": [
					"Analytics"
				],
				"summary": "看板统计（指标 + 图表 + 热门商品）",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "店铺 ID，为空时统计全部店铺",
						"name": "store_id",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "7d/30d/90d/1y，默认 30d",
						"name": "period",
						"in": "query",
						"type": "string"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/analytics/chart": {
			"get": {
				"tags": [
					"Analytics"
				],
				"summary": "每日收入",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "店铺 ID",
						"name": "store_id",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "开始日期 YYYY-MM-DD，默认 29 天前",
						"name": "start",
						"in": "query",
						"type": "string"
					},
					{
						"description": "结束日期 YYYY-MM-DD，默认今天",
						"name": "end",
						"in": "query",
						"type": "string"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/analytics/top-listings": {
			"get": {
				"tags": [
					"Analytics"
				],
				"summary": "热门商品",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "店铺 ID",
						"name": "store_id",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "数量，默认 5",
						"name": "limit",
						"in": "query",
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/fees/calculate": {
			"post": {
				"tags": [
					"Fees"
				],
				"summary": "计算 Etsy 费用与利润",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "价格参数",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/etsy/connect": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "获取 Etsy 授权链接",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "用户 ID",
						"name": "user_id",
						"in": "query",
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/etsy/callback": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Etsy OAuth 回调",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "授权码",
						"name": "code",
						"in": "query",
						"required": true,
						"type": "string"
					},
					{
						"description": "state",
						"name": "state",
						"in": "query",
						"required": true,
						"type": "string"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/customers": {
			"get": {
				"tags": [
					"Customer"
				],
				"summary": "客户列表",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "店铺 ID",
						"name": "store_id",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "姓名或邮箱",
						"name": "search",
						"in": "query",
						"type": "string"
					},
					{
						"description": "标签",
						"name": "tag",
						"in": "query",
						"type": "string"
					},
					{
						"description": "last_order_at/total_spent/total_orders/name",
						"name": "sort_by",
						"in": "query",
						"type": "string"
					},
					{
						"description": "asc/desc",
						"name": "sort_order",
						"in": "query",
						"type": "string"
					},
					{
						"description": "页码",
						"name": "page",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "每页数量",
						"name": "page_size",
						"in": "query",
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/customers/{id}": {
			"get": {
				"tags": [
					"Customer"
				],
				"summary": "客户详情（含备注与最近订单）",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "客户 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/customers/{id}/tags": {
			"put": {
				"tags": [
					"Customer"
				],
				"summary": "更新客户标签",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "客户 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					},
					{
						"description": "标签",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/customers/{id}/notes": {
			"post": {
				"tags": [
					"Customer"
				],
				"summary": "新增客户备注",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "客户 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					},
					{
						"description": "备注",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/customers/{id}/notes/{note_id}": {
			"patch": {
				"tags": [
					"Customer"
				],
				"summary": "更新备注完成状态",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "客户 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					},
					{
						"description": "备注 ID",
						"name": "note_id",
						"in": "path",
						"required": true,
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			},
			"delete": {
				"tags": [
					"Customer"
				],
				"summary": "删除客户备注",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "客户 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					},
					{
						"description": "备注 ID",
						"name": "note_id",
						"in": "path",
						"required": true,
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/stores": {
			"get": {
				"tags": [
					"Store"
				],
				"summary": "店铺列表",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "用户 ID",
						"name": "user_id",
						"in": "query",
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/listings": {
			"get": {
				"tags": [
					"Listing"
				],
				"summary": "商品列表",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "店铺 ID",
						"name": "store_id",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "active/inactive/draft/expired/all",
						"name": "state",
						"in": "query",
						"type": "string"
					},
					{
						"description": "标题关键字",
						"name": "search",
						"in": "query",
						"type": "string"
					},
					{
						"description": "title/price/views/favorites/updated_at",
						"name": "sort_by",
						"in": "query",
						"type": "string"
					},
					{
						"description": "asc/desc",
						"name": "sort_order",
						"in": "query",
						"type": "string"
					},
					{
						"description": "页码",
						"name": "page",
						"in": "query",
						"type": "integer"
					},
					{
						"description": "每页数量",
						"name": "page_size",
						"in": "query",
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/listings/{id}": {
			"get": {
				"tags": [
					"Listing"
				],
				"summary": "商品详情",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "商品 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			},
			"patch": {
				"tags": [
					"Listing"
				],
				"summary": "编辑商品",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "商品 ID",
						"name": "id",
						"in": "path",
						"required": true,
						"type": "integer"
					},
					{
						"description": "待更新字段",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/api/etsy/sync": {
			"post": {
				"tags": [
					"Sync"
				],
				"summary": "手动同步店铺商品与订单",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "store_id, sync_type(all/listings/orders)",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"429": {
						"description": "限流中",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Etsy Dashboard API",
	Description:      "Etsy 店铺看板：授权、同步、统计与客户管理",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
