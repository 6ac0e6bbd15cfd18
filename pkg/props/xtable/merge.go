package xtable

// Merge 将若干层属性表按优先级合并为一个新表。
//
// base 为最低优先级，overlays 按下标递增优先级，靠后的层同键胜出。
// 所有入参保持不变，返回全新的表。nil 层被跳过。
//
// 键顺序规则：先出现的层先确定键的插入位置，后层只改值不移位；
// 后层新增的键追加到末尾。
func Merge(base *Table, overlays ...*Table) *Table {
	out := New()
	out.PutAll(base)
	for _, layer := range overlays {
		out.PutAll(layer)
	}
	return out
}
