// Package scholar 封装对学术搜索结果页的访问与解析。
//
// 搜索站点没有公开API,本包通过抓取结果页HTML提取文献条目,
// 解析依赖页面的CSS类名(gs_ri / gs_rt / gs_a 等),站点改版时可能失效。
// 所有请求都经过限速器,并发与延迟窗口见 Engine 的配置。
package scholar
