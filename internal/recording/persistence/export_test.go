package persistence

// Count returns how many measurements are held for the supplier.
func (d *MemoryMeasurementsDatabase) Count(supplierID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.partitions[supplierID])
}
